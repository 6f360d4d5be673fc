package onboarding

import (
	"slices"
	"strings"

	"github.com/nhle/vanta/internal/model"
)

// MaxYearsExperience is the largest value the API accepts.
const MaxYearsExperience = 60

// Draft is an onboarding submission in progress.
type Draft struct {
	FullName        string
	Email           string
	PrimaryRole     string
	TargetLocations []string
	YearsExperience int
	Resume          *model.FileRef
	ScheduleCron    string
	Timezone        string
}

// NewDraft returns the initial draft.
func NewDraft() Draft {
	return Draft{
		TargetLocations: []string{},
		ScheduleCron:    model.DefaultScheduleCron,
		Timezone:        model.DefaultTimezone,
	}
}

// Clone copies the location list. The resume reference is shared.
func (d Draft) Clone() Draft {
	d.TargetLocations = slices.Clone(d.TargetLocations)
	if d.TargetLocations == nil {
		d.TargetLocations = []string{}
	}
	return d
}

// BasicsValid reports whether the Basics step may be left.
func (d Draft) BasicsValid() bool {
	return strings.TrimSpace(d.FullName) != "" && strings.TrimSpace(d.Email) != ""
}

// PreferencesValid reports whether the Preferences step may be left.
func (d Draft) PreferencesValid() bool {
	return strings.TrimSpace(d.PrimaryRole) != "" &&
		len(d.TargetLocations) > 0 &&
		strings.TrimSpace(d.ScheduleCron) != "" &&
		strings.TrimSpace(d.Timezone) != ""
}

// Problems lists the unmet requirements of a step, for inline display.
func (d Draft) Problems(step Step) []model.ValidationError {
	var out []model.ValidationError
	add := func(field, msg string) {
		out = append(out, model.ValidationError{Field: field, Message: msg})
	}
	switch step {
	case StepBasics:
		if strings.TrimSpace(d.FullName) == "" {
			add("full_name", "Full name is required.")
		}
		if strings.TrimSpace(d.Email) == "" {
			add("email", "Email is required.")
		}
	case StepPreferences:
		if strings.TrimSpace(d.PrimaryRole) == "" {
			add("primary_role", "Choose a primary role.")
		}
		if len(d.TargetLocations) == 0 {
			add("target_locations", "Select at least one location.")
		}
		if strings.TrimSpace(d.ScheduleCron) == "" {
			add("schedule_cron", "Choose a digest schedule.")
		}
		if strings.TrimSpace(d.Timezone) == "" {
			add("timezone", "Choose a timezone.")
		}
	}
	return out
}

// Store is the single writer of the onboarding draft. Views read copies
// and change fields only through its setters.
type Store struct {
	draft Draft
}

// NewStore returns a store holding the initial draft.
func NewStore() *Store {
	return &Store{draft: NewDraft()}
}

// Draft returns a copy of the current draft.
func (s *Store) Draft() Draft {
	return s.draft.Clone()
}

func (s *Store) SetFullName(v string)     { s.draft.FullName = v }
func (s *Store) SetEmail(v string)        { s.draft.Email = v }
func (s *Store) SetPrimaryRole(v string)  { s.draft.PrimaryRole = v }
func (s *Store) SetScheduleCron(v string) { s.draft.ScheduleCron = v }
func (s *Store) SetTimezone(v string)     { s.draft.Timezone = v }

// SetResume sets or clears (nil) the resume file.
func (s *Store) SetResume(ref *model.FileRef) {
	s.draft.Resume = ref
}

// SetYearsExperience rejects values outside 0..60.
func (s *Store) SetYearsExperience(n int) error {
	if n < 0 || n > MaxYearsExperience {
		return &model.ValidationError{Field: "years_experience", Message: "Years of experience must be between 0 and 60."}
	}
	s.draft.YearsExperience = n
	return nil
}

// ToggleLocation adds the location if absent and removes it otherwise.
func (s *Store) ToggleLocation(loc string) {
	if i := slices.Index(s.draft.TargetLocations, loc); i >= 0 {
		s.draft.TargetLocations = slices.Delete(slices.Clone(s.draft.TargetLocations), i, i+1)
		return
	}
	s.draft.TargetLocations = append(slices.Clone(s.draft.TargetLocations), loc)
}

// SetTargetLocations replaces the location list, dropping duplicates.
func (s *Store) SetTargetLocations(locs []string) {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		if l = strings.TrimSpace(l); l != "" && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	s.draft.TargetLocations = out
}

// Reset restores the initial draft.
func (s *Store) Reset() {
	s.draft = NewDraft()
}
