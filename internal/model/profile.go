package model

import "strings"

// Profile is the user's professional profile.
type Profile struct {
	ID              string   `json:"id"`
	Headline        *string  `json:"headline"`
	Summary         *string  `json:"summary"`
	Skills          []string `json:"skills"`
	YearsExperience *int     `json:"years_experience"`
	Locations       []string `json:"locations"`
	WorkAuth        *string  `json:"work_auth"`
	SalaryMinCents  *int64   `json:"salary_min_cents"`
	SalaryMaxCents  *int64   `json:"salary_max_cents"`
	RemoteOnly      bool     `json:"remote_only"`
}

// ProfileUpdate is the editable subset of a Profile. Nil text fields clear
// the value on the server.
type ProfileUpdate struct {
	Headline   *string  `json:"headline"`
	Summary    *string  `json:"summary"`
	Skills     []string `json:"skills"`
	Locations  []string `json:"locations"`
	RemoteOnly bool     `json:"remote_only"`
	WorkAuth   *string  `json:"work_auth"`
}

// ProfileForm is the text the user typed into the profile editor.
type ProfileForm struct {
	Headline   string
	Summary    string
	Skills     string
	Locations  string
	WorkAuth   string
	RemoteOnly bool
}

// FormFromProfile fills the editor from a fetched profile.
func FormFromProfile(p Profile) ProfileForm {
	return ProfileForm{
		Headline:   deref(p.Headline),
		Summary:    deref(p.Summary),
		Skills:     strings.Join(p.Skills, ", "),
		Locations:  strings.Join(p.Locations, ", "),
		WorkAuth:   deref(p.WorkAuth),
		RemoteOnly: p.RemoteOnly,
	}
}

// Update converts the editor contents into a request body. Blank text
// becomes null and list fields are split on commas.
func (f ProfileForm) Update() ProfileUpdate {
	return ProfileUpdate{
		Headline:   nullable(f.Headline),
		Summary:    nullable(f.Summary),
		Skills:     SplitList(f.Skills),
		Locations:  SplitList(f.Locations),
		RemoteOnly: f.RemoteOnly,
		WorkAuth:   nullable(f.WorkAuth),
	}
}

// SplitList splits a comma separated list, trimming entries and dropping
// blanks. It never returns nil.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
