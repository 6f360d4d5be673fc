package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/vanta/internal/model"
)

// FeedPath renders the feed query for a filter.
func FeedPath(f model.FeedFilter) string {
	q := url.Values{}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.RemoteOnly {
		q.Set("remote_only", "true")
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return "/feed/jobs"
	}
	return "/feed/jobs?" + q.Encode()
}

// ListFeed returns one page of the ranked job feed.
func (c *Client) ListFeed(ctx context.Context, f model.FeedFilter, opts RequestOptions) (*model.FeedPage, error) {
	var page model.FeedPage
	if err := c.FetchJSON(ctx, FeedPath(f), &page, opts); err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	return &page, nil
}

// HideJob removes a posting from the user's feed.
func (c *Client) HideJob(ctx context.Context, id string, opts RequestOptions) error {
	path := "/feed/jobs/" + url.PathEscape(id) + "/hide"
	if err := c.SendJSON(ctx, http.MethodPost, path, struct{}{}, nil, opts); err != nil {
		return fmt.Errorf("hiding job %s: %w", id, err)
	}
	return nil
}
