package model

import (
	"fmt"
	"slices"
	"strings"
)

// Stage is the pipeline position of a tracked application.
type Stage string

// Stage values in kanban column order.
const (
	StageProspect  Stage = "prospect"
	StageApplied   Stage = "applied"
	StageScreen    Stage = "screen"
	StageInterview Stage = "interview"
	StageOffer     Stage = "offer"
	StageRejected  Stage = "rejected"
	StageAccepted  Stage = "accepted"
)

var stageOrder = []Stage{
	StageProspect,
	StageApplied,
	StageScreen,
	StageInterview,
	StageOffer,
	StageRejected,
	StageAccepted,
}

// Stages returns every stage in column order. The returned slice is a copy.
func Stages() []Stage {
	return slices.Clone(stageOrder)
}

// ParseStage converts user or wire input into a Stage. Unknown values are
// rejected.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// Valid reports whether s belongs to the fixed stage set.
func (s Stage) Valid() bool {
	return slices.Contains(stageOrder, s)
}

// Index returns the column position of s, or -1 for an unknown stage.
func (s Stage) Index() int {
	return slices.Index(stageOrder, s)
}

// Label returns the display name of the stage.
func (s Stage) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
