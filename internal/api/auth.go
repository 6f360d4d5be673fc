package api

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/nhle/vanta/internal/model"
)

// ValidateEmail trims and checks an address before it is sent anywhere.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &model.ValidationError{Field: "email", Message: "Email is required."}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &model.ValidationError{Field: "email", Message: "Enter a valid email address."}
	}
	return email, nil
}

// DevLogin exchanges an email for a session identity.
func (c *Client) DevLogin(ctx context.Context, email string) (*model.Session, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	body := struct {
		Email string `json:"email"`
	}{Email: email}

	var s model.Session
	if err := c.SendJSON(ctx, http.MethodPost, "/auth/dev-login", body, &s, RequestOptions{}); err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}
	if !s.Valid() {
		return nil, fmt.Errorf("signing in: response carried no user id")
	}
	return &s, nil
}

// HealthStatus is the API liveness report.
type HealthStatus struct {
	Status string `json:"status"`
}

// Health checks that the API is reachable.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.FetchJSON(ctx, "/health", &h, RequestOptions{}); err != nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}
	return &h, nil
}
