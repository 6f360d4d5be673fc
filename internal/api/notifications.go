package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/vanta/internal/model"
)

// ListNotifications returns the user's notifications.
func (c *Client) ListNotifications(ctx context.Context, opts RequestOptions) ([]model.Notification, error) {
	var ns []model.Notification
	if err := c.FetchJSON(ctx, "/notifications", &ns, opts); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return ns, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string, opts RequestOptions) error {
	path := "/notifications/" + url.PathEscape(id) + "/read"
	if err := c.SendJSON(ctx, http.MethodPost, path, struct{}{}, nil, opts); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, opts RequestOptions) error {
	if err := c.SendJSON(ctx, http.MethodPost, "/notifications/read-all", struct{}{}, nil, opts); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// LatestDigest returns the most recent daily digest. A missing digest is
// reported as a 404 *Error; see IsNotFound.
func (c *Client) LatestDigest(ctx context.Context, opts RequestOptions) (*model.Digest, error) {
	var d model.Digest
	if err := c.FetchJSON(ctx, "/notifications/latest/digest", &d, opts); err != nil {
		return nil, fmt.Errorf("loading digest: %w", err)
	}
	return &d, nil
}
