package model

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Notification kinds with dedicated titles.
const (
	KindDailyDigest     = "daily_digest"
	KindResumeTailored  = "resume_tailored"
	KindResumeOptimized = "resume_optimized"
)

var kindTitles = map[string]string{
	KindDailyDigest:     "Daily Digest",
	KindResumeTailored:  "Resume tailored and ready",
	KindResumeOptimized: "Resume optimization complete",
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Notification is a server-generated event for the user.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Kind selects how the notification is rendered.
	Kind string `json:"kind"`

	// Payload is kind-specific and otherwise opaque.
	Payload json.RawMessage `json:"payload,omitempty"`

	// ReadAt is nil while the notification is unread.
	ReadAt *Timestamp `json:"read_at,omitempty"`

	// CreatedAt is when this notification was generated.
	CreatedAt Timestamp `json:"created_at"`
}

// Read reports whether the user has seen this notification.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}

// Title returns the display title for the notification kind.
func (n Notification) Title() string {
	return KindTitle(n.Kind)
}

// KindTitle maps a notification kind to its display title. Unknown kinds
// have underscores replaced and each word capitalized.
func KindTitle(kind string) string {
	if title, ok := kindTitles[kind]; ok {
		return title
	}
	return titleCaser.String(strings.ReplaceAll(kind, "_", " "))
}

// CountUnread returns the number of unread notifications.
func CountUnread(ns []Notification) int {
	n := 0
	for _, item := range ns {
		if !item.Read() {
			n++
		}
	}
	return n
}

// DigestItem is one job in a daily digest.
type DigestItem struct {
	JobID    string   `json:"job_id"`
	Title    string   `json:"title"`
	Company  string   `json:"company,omitempty"`
	Location string   `json:"location,omitempty"`
	Remote   bool     `json:"remote"`
	URL      string   `json:"url,omitempty"`
	FitScore *float64 `json:"fit_score,omitempty"`
	WhyFit   string   `json:"why_fit,omitempty"`
}

// Digest is the latest daily digest.
type Digest struct {
	GeneratedAt Timestamp    `json:"generated_at"`
	Items       []DigestItem `json:"items"`
}
