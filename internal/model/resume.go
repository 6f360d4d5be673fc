package model

import (
	"fmt"
	"sort"
	"strings"
)

// Resume is an entry in the resume library.
type Resume struct {
	ID               string    `json:"id"`
	Base             bool      `json:"base"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	CreatedAt        Timestamp `json:"created_at"`
	ATSScore         *int      `json:"ats_score,omitempty"`
}

// Kind labels the resume as the uploaded base or a tailored variant.
func (r Resume) Kind() string {
	if r.Base {
		return "Base"
	}
	return "Tailored"
}

// ResumeDetail is a parsed resume version.
type ResumeDetail struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename,omitempty"`
	ContentType      string         `json:"content_type,omitempty"`
	Sections         map[string]any `json:"sections,omitempty"`
	Keywords         []string       `json:"keywords,omitempty"`
	ATSScore         *int           `json:"ats_score,omitempty"`
	CreatedAt        Timestamp      `json:"created_at"`
}

// Summary returns the parsed summary section, if any.
func (d ResumeDetail) Summary() string {
	s, _ := d.Sections["summary"].(string)
	return s
}

// Experience returns the parsed experience entries rendered as lines.
func (d ResumeDetail) Experience() []string {
	raw, ok := d.Sections["experience"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			out = append(out, describeEntry(v))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Markdown renders the detail for display.
func (d ResumeDetail) Markdown() string {
	var b strings.Builder
	name := d.OriginalFilename
	if name == "" {
		name = "Resume"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)
	if d.ATSScore != nil {
		fmt.Fprintf(&b, "**ATS score:** %d\n\n", *d.ATSScore)
	}
	if s := d.Summary(); s != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", s)
	}
	if exp := d.Experience(); len(exp) > 0 {
		b.WriteString("## Experience\n\n")
		for _, line := range exp {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(d.Keywords) > 0 {
		fmt.Fprintf(&b, "## Keywords\n\n%s\n", strings.Join(d.Keywords, ", "))
	}
	return b.String()
}

func describeEntry(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
