package model

import "strings"

// TaskSummary is the short form of a follow-up task attached to an
// application.
type TaskSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Type        string     `json:"type,omitempty"`
	DueAt       *Timestamp `json:"due_at,omitempty"`
	CompletedAt *Timestamp `json:"completed_at,omitempty"`
}

// Application is a tracked job opportunity. It is always in exactly one
// Stage.
type Application struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	Title   string `json:"title"`
	Company string `json:"company,omitempty"`

	// Stage is the current pipeline position.
	Stage Stage `json:"stage"`

	// URL links to the original posting.
	URL string `json:"url,omitempty"`

	Tasks      []TaskSummary `json:"tasks"`
	NotesCount int           `json:"notes_count"`
	CreatedAt  Timestamp     `json:"created_at"`
}

// Clone returns a copy of a that shares no slices with the receiver.
func (a Application) Clone() Application {
	if a.Tasks != nil {
		tasks := make([]TaskSummary, len(a.Tasks))
		copy(tasks, a.Tasks)
		a.Tasks = tasks
	}
	return a
}

// TrackRequest creates an application, either from a feed posting or from
// manually entered details.
type TrackRequest struct {
	JobPostingID string `json:"job_posting_id,omitempty"`
	Title        string `json:"title,omitempty"`
	Company      string `json:"company,omitempty"`
	URL          string `json:"url,omitempty"`
}

// StageUpdate is the body of a stage change.
type StageUpdate struct {
	Stage Stage `json:"stage"`
}

// Note is an immutable annotation on an application.
type Note struct {
	ID                    string    `json:"id"`
	Body                  string    `json:"body,omitempty"`
	AttachmentURL         string    `json:"attachment_url,omitempty"`
	AttachmentName        string    `json:"attachment_name,omitempty"`
	AttachmentContentType string    `json:"attachment_content_type,omitempty"`
	CreatedAt             Timestamp `json:"created_at"`
}

// HasAttachment reports whether the note carries a file.
func (n Note) HasAttachment() bool {
	return n.AttachmentURL != ""
}

// FileRef points at a local file. The bytes are only read when a multipart
// request is encoded.
type FileRef struct {
	Path string

	// Name overrides the uploaded filename. Defaults to the base of Path.
	Name string

	// ContentType overrides detection from the file contents.
	ContentType string
}

// NoteInput is a note about to be added. At least one of Body or
// Attachment must be set.
type NoteInput struct {
	Body       string
	Attachment *FileRef
}

// Normalize trims the body and rejects an empty note.
func (in NoteInput) Normalize() (NoteInput, error) {
	in.Body = strings.TrimSpace(in.Body)
	if in.Attachment != nil && strings.TrimSpace(in.Attachment.Path) == "" {
		in.Attachment = nil
	}
	if in.Body == "" && in.Attachment == nil {
		return in, &ValidationError{Field: "body", Message: "Write a note or attach a file."}
	}
	return in, nil
}
