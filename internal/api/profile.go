package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nhle/vanta/internal/model"
)

// GetProfile returns the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context, opts RequestOptions) (*model.Profile, error) {
	var p model.Profile
	if err := c.FetchJSON(ctx, "/profile/me", &p, opts); err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile replaces the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate, opts RequestOptions) (*model.Profile, error) {
	var p *model.Profile
	if err := c.SendJSON(ctx, http.MethodPut, "/profile/me", upd, &p, opts); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}
