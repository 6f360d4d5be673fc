package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nhle/vanta/internal/model"
)

// Error is a non-2xx response. Message is the response body text, or the
// standard status phrase when the body is empty.
type Error struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func newError(method, path string, status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))

	// Error bodies are usually {"detail": "..."}.
	var envelope struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Detail != "" {
		msg = envelope.Detail
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg, Method: method, Path: path}
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.Status, e.Method, e.Path, e.Message)
}

// TransportError indicates the request never completed.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Retryable reports whether a read that failed with err may be retried:
// transport failures and 5xx responses only.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsTransport(err) {
		return !errors.Is(err, context.DeadlineExceeded)
	}
	return StatusOf(err) >= 500
}

// UserMessage turns err into the text shown inline next to the action that
// failed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve     *model.ValidationError
		apiErr *Error
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out. Please try again."
	case IsTransport(err):
		return "Network error. Please try again."
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
