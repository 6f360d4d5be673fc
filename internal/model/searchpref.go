package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Defaults applied to new saved searches and onboarding drafts.
const (
	DefaultScheduleCron = "0 5 * * *"
	DefaultTimezone     = "UTC"
	// BumpedScheduleCron is the schedule applied by the "bump to 7am" action.
	BumpedScheduleCron = "0 7 * * *"
)

// SearchPref is a saved search run on a schedule.
type SearchPref struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Filters      map[string]any `json:"filters"`
	ScheduleCron string         `json:"schedule_cron"`
	Timezone     string         `json:"timezone"`
	LastRunAt    *Timestamp     `json:"last_run_at,omitempty"`
}

// FiltersJSON renders the filters as indented JSON for display.
func (p SearchPref) FiltersJSON() string {
	if len(p.Filters) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(p.Filters, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// SearchPrefInput creates a saved search.
type SearchPrefInput struct {
	Name         string         `json:"name"`
	Filters      map[string]any `json:"filters"`
	ScheduleCron string         `json:"schedule_cron"`
	Timezone     string         `json:"timezone"`
}

// SearchPrefPatch updates a saved search. Nil fields are left unchanged.
type SearchPrefPatch struct {
	Name         *string        `json:"name,omitempty"`
	Filters      map[string]any `json:"filters,omitempty"`
	ScheduleCron *string        `json:"schedule_cron,omitempty"`
	Timezone     *string        `json:"timezone,omitempty"`
}

// NewSearchPrefInput validates the raw form fields. Blank filters are an
// empty object; blank schedule and timezone fall back to the defaults.
func NewSearchPrefInput(name, filters, cron, tz string) (SearchPrefInput, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SearchPrefInput{}, &ValidationError{Field: "name", Message: "Name is required."}
	}
	parsed, err := ParseFilters(filters)
	if err != nil {
		return SearchPrefInput{}, err
	}
	if strings.TrimSpace(cron) == "" {
		cron = DefaultScheduleCron
	}
	if strings.TrimSpace(tz) == "" {
		tz = DefaultTimezone
	}
	return SearchPrefInput{
		Name:         name,
		Filters:      parsed,
		ScheduleCron: strings.TrimSpace(cron),
		Timezone:     strings.TrimSpace(tz),
	}, nil
}

// ParseFilters decodes the free-text filter field, which must be a JSON
// object.
func ParseFilters(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var filters map[string]any
	if err := dec.Decode(&filters); err != nil || filters == nil || dec.More() {
		return nil, &ValidationError{Field: "filters", Message: "Filters must be valid JSON."}
	}
	return filters, nil
}
