package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/vanta/internal/model"
)

func searchPrefPath(id string) string {
	return "/search-preferences/" + url.PathEscape(id)
}

// ListSearchPrefs returns the saved searches.
func (c *Client) ListSearchPrefs(ctx context.Context, opts RequestOptions) ([]model.SearchPref, error) {
	var prefs []model.SearchPref
	if err := c.FetchJSON(ctx, "/search-preferences/", &prefs, opts); err != nil {
		return nil, fmt.Errorf("listing search preferences: %w", err)
	}
	return prefs, nil
}

// CreateSearchPref saves a new search.
func (c *Client) CreateSearchPref(
	ctx context.Context,
	in model.SearchPrefInput,
	opts RequestOptions,
) (*model.SearchPref, error) {
	var pref *model.SearchPref
	if err := c.SendJSON(ctx, http.MethodPost, "/search-preferences/", in, &pref, opts); err != nil {
		return nil, fmt.Errorf("creating search preference: %w", err)
	}
	return pref, nil
}

// UpdateSearchPref patches a saved search.
func (c *Client) UpdateSearchPref(
	ctx context.Context,
	id string,
	patch model.SearchPrefPatch,
	opts RequestOptions,
) (*model.SearchPref, error) {
	var pref *model.SearchPref
	if err := c.SendJSON(ctx, http.MethodPut, searchPrefPath(id), patch, &pref, opts); err != nil {
		return nil, fmt.Errorf("updating search preference %s: %w", id, err)
	}
	return pref, nil
}

// DeleteSearchPref removes a saved search.
func (c *Client) DeleteSearchPref(ctx context.Context, id string, opts RequestOptions) error {
	if err := c.DeleteResource(ctx, searchPrefPath(id), nil, opts); err != nil {
		return fmt.Errorf("deleting search preference %s: %w", id, err)
	}
	return nil
}
