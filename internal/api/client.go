package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// IdentityHeader carries the caller identity on every request made
	// within a session.
	IdentityHeader = "X-User-Id"

	requestIDHeader = "X-Request-Id"
)

// RequestOptions carries per-request settings.
type RequestOptions struct {
	// Identity is the signed-in user id. When empty the request is still
	// sent and the server decides authorization.
	Identity string
}

// Client is a thin HTTP client for the job-search API. It attaches the
// caller identity, encodes and decodes JSON, and translates failures into
// *Error and *TransportError values. It never retries, caches or times
// out on its own; those concerns belong to the query layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client. The baseURL should be the root URL
// of the API (e.g., http://localhost:8000).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchJSON performs a GET and decodes the JSON response into out.
//
// A 204 response leaves out untouched, so callers that need to tell an
// absent value apart pass a pointer to a nil pointer.
func (c *Client) FetchJSON(
	ctx context.Context,
	path string,
	out any,
	opts RequestOptions,
) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out, opts)
}

// SendJSON performs a POST, PUT or PATCH with a JSON body and decodes the
// response into out. A nil body is sent as an empty request body.
func (c *Client) SendJSON(
	ctx context.Context,
	method string,
	path string,
	body any,
	out any,
	opts RequestOptions,
) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out, opts)
}

// SendForm performs a multipart POST. File parts are read from disk when
// the form is encoded.
func (c *Client) SendForm(
	ctx context.Context,
	path string,
	form *Form,
	out any,
	opts RequestOptions,
) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encoding form for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out, opts)
}

// DeleteResource performs a DELETE. out may be nil.
func (c *Client) DeleteResource(
	ctx context.Context,
	path string,
	out any,
	opts RequestOptions,
) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out, opts)
}

// do is the core HTTP method that builds the request, attaches identity,
// and translates the response.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body io.Reader,
	contentType string,
	out any,
	opts RequestOptions,
) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if opts.Identity != "" {
		req.Header.Set(IdentityHeader, opts.Identity)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(method, path, resp.StatusCode, respBody)
	}

	// No content to parse (e.g. 204).
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
