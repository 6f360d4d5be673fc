package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/vanta/internal/model"
)

func resumePath(id string) string {
	return "/resumes/" + url.PathEscape(id)
}

// ListResumes returns the resume library.
func (c *Client) ListResumes(ctx context.Context, opts RequestOptions) ([]model.Resume, error) {
	var resumes []model.Resume
	if err := c.FetchJSON(ctx, "/resumes", &resumes, opts); err != nil {
		return nil, fmt.Errorf("listing resumes: %w", err)
	}
	return resumes, nil
}

// GetResume returns a parsed resume version.
func (c *Client) GetResume(ctx context.Context, id string, opts RequestOptions) (*model.ResumeDetail, error) {
	var d model.ResumeDetail
	if err := c.FetchJSON(ctx, resumePath(id), &d, opts); err != nil {
		return nil, fmt.Errorf("loading resume %s: %w", id, err)
	}
	return &d, nil
}

// TailorResume queues a tailoring job for the resume.
func (c *Client) TailorResume(ctx context.Context, id string, opts RequestOptions) error {
	if err := c.SendJSON(ctx, http.MethodPost, resumePath(id)+"/tailor", struct{}{}, nil, opts); err != nil {
		return fmt.Errorf("tailoring resume %s: %w", id, err)
	}
	return nil
}

// OptimizeResume queues an ATS optimization job for the resume.
func (c *Client) OptimizeResume(ctx context.Context, id string, opts RequestOptions) error {
	if err := c.SendJSON(ctx, http.MethodPost, resumePath(id)+"/optimize", struct{}{}, nil, opts); err != nil {
		return fmt.Errorf("optimizing resume %s: %w", id, err)
	}
	return nil
}
