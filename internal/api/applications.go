package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/vanta/internal/model"
)

func applicationPath(id string) string {
	return "/applications/" + url.PathEscape(id)
}

// ListApplications returns every tracked application.
func (c *Client) ListApplications(ctx context.Context, opts RequestOptions) ([]model.Application, error) {
	var apps []model.Application
	if err := c.FetchJSON(ctx, "/applications/", &apps, opts); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStage moves an application to a new stage.
func (c *Client) UpdateApplicationStage(
	ctx context.Context,
	id string,
	stage model.Stage,
	opts RequestOptions,
) (*model.Application, error) {
	var app *model.Application
	err := c.SendJSON(ctx, http.MethodPatch, applicationPath(id), model.StageUpdate{Stage: stage}, &app, opts)
	if err != nil {
		return nil, fmt.Errorf("updating stage of application %s: %w", id, err)
	}
	return app, nil
}

// TrackJob starts tracking a feed posting as a new application.
func (c *Client) TrackJob(ctx context.Context, jobPostingID string, opts RequestOptions) (*model.Application, error) {
	return c.CreateApplication(ctx, model.TrackRequest{JobPostingID: jobPostingID}, opts)
}

// CreateApplication creates an application from a posting or from manual
// details.
func (c *Client) CreateApplication(
	ctx context.Context,
	req model.TrackRequest,
	opts RequestOptions,
) (*model.Application, error) {
	var app *model.Application
	if err := c.SendJSON(ctx, http.MethodPost, "/applications/", req, &app, opts); err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	return app, nil
}

// ListNotes returns the notes on an application, newest first.
func (c *Client) ListNotes(ctx context.Context, applicationID string, opts RequestOptions) ([]model.Note, error) {
	var notes []model.Note
	if err := c.FetchJSON(ctx, applicationPath(applicationID)+"/notes", &notes, opts); err != nil {
		return nil, fmt.Errorf("listing notes for %s: %w", applicationID, err)
	}
	return notes, nil
}

// NoteForm builds the multipart payload for a note. The body part is
// omitted when blank and the attachment part when no file is set.
func NoteForm(in model.NoteInput) (*Form, error) {
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	form := NewForm()
	if in.Body != "" {
		form.Add("body", in.Body)
	}
	if in.Attachment != nil {
		form.AddFile("attachment", *in.Attachment)
	}
	return form, nil
}

// AddNote posts a note. Empty notes are rejected before any request is
// made.
func (c *Client) AddNote(
	ctx context.Context,
	applicationID string,
	in model.NoteInput,
	opts RequestOptions,
) (*model.Note, error) {
	form, err := NoteForm(in)
	if err != nil {
		return nil, err
	}
	var note *model.Note
	if err := c.SendForm(ctx, applicationPath(applicationID)+"/notes", form, &note, opts); err != nil {
		return nil, fmt.Errorf("adding note to %s: %w", applicationID, err)
	}
	return note, nil
}
