package api

import (
	"context"
	"fmt"

	"github.com/nhle/vanta/internal/model"
)

// SubmitOnboarding posts the onboarding payload built by the wizard.
func (c *Client) SubmitOnboarding(
	ctx context.Context,
	form *Form,
	opts RequestOptions,
) (*model.OnboardingResponse, error) {
	var resp model.OnboardingResponse
	if err := c.SendForm(ctx, "/onboarding/profile", form, &resp, opts); err != nil {
		return nil, fmt.Errorf("submitting onboarding: %w", err)
	}
	return &resp, nil
}
