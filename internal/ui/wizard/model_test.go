package wizard

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/onboarding"
	"github.com/nhle/vanta/tests/testutil"
)

func newWizard(t *testing.T) Model {
	t.Helper()
	env := testutil.NewTestEnv(t, http.NotFoundHandler())
	m := New(env, 100, 40)
	m.Init()
	return m
}

func TestInitPrefillsEmailFromSession(t *testing.T) {
	m := newWizard(t)

	assert.Equal(t, testutil.TestUser.Email, m.Wizard().Store().Draft().Email)
	assert.Equal(t, testutil.TestUser.Email, m.fb.email)
	assert.True(t, m.Capturing(), "the basics form is open")
}

func TestApplyRejectsFractionalYears(t *testing.T) {
	m := newWizard(t)

	m.fb.years = "2.5"
	err := m.apply(onboarding.StepBasics)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Years of experience must be a whole number.", verr.Message)

	m.fb.years = ""
	require.NoError(t, m.apply(onboarding.StepBasics))
	assert.Zero(t, m.Wizard().Store().Draft().YearsExperience)
}

func TestApplyResumePath(t *testing.T) {
	m := newWizard(t)

	m.fb.resumePath = "  /home/ada/cv.pdf "
	require.NoError(t, m.apply(onboarding.StepResume))
	ref := m.Wizard().Store().Draft().Resume
	require.NotNil(t, ref)
	assert.Equal(t, "/home/ada/cv.pdf", ref.Path)
	assert.Equal(t, "cv.pdf", ref.Name)

	m.fb.resumePath = ""
	require.NoError(t, m.apply(onboarding.StepResume))
	assert.Nil(t, m.Wizard().Store().Draft().Resume)
}

func TestBackWhileSubmittingStillShowsResult(t *testing.T) {
	m := newWizard(t)
	w := m.Wizard()
	w.Store().SetFullName("Ada Lovelace")
	w.Store().SetPrimaryRole("Software Engineer")
	w.Store().ToggleLocation("Remote")
	for w.Step() != onboarding.StepReview {
		require.True(t, w.Next(), "blocked on %s", w.Step())
	}
	m.form = nil
	m, _ = m.submit()
	require.True(t, w.Submitting())

	// Enter is ignored while the request is in flight, esc is not.
	m, _ = m.Update(testutil.Key("enter"))
	assert.True(t, w.Submitting())
	m, _ = m.Update(testutil.Key("esc"))
	assert.Equal(t, onboarding.StepResume, w.Step())
	assert.True(t, m.Capturing())

	m, _ = m.Update(submittedMsg{resp: &model.OnboardingResponse{Message: "Welcome"}})
	assert.False(t, m.Capturing())
	assert.Equal(t, onboarding.StepReview, w.Step())
	assert.True(t, w.Complete())
	assert.Equal(t, "Ada Lovelace", w.Summary().FullName)
	assert.Contains(t, m.View(), "Ada Lovelace")
}

func TestStepIndicator(t *testing.T) {
	out := StepIndicator(onboarding.StepResume)
	assert.Contains(t, out, "✓ 1 Basics")
	assert.Contains(t, out, "✓ 2 Preferences")
	assert.Contains(t, out, "● 3 Resume")
	assert.Contains(t, out, "○ 4 Review")
}
