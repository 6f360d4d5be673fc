package onboarding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
)

func fillValid(s *Store) {
	s.SetFullName("Ada Lovelace")
	s.SetEmail("ada@x.com")
	s.SetPrimaryRole("Software Engineer")
	s.ToggleLocation("Remote")
	s.ToggleLocation("London")
}

func walkToReview(t *testing.T, w *Wizard) {
	t.Helper()
	for w.Step() != StepReview {
		require.True(t, w.Next(), "blocked on %s", w.Step())
	}
}

func TestDraftDefaults(t *testing.T) {
	d := NewStore().Draft()
	assert.Empty(t, d.FullName)
	assert.Empty(t, d.Email)
	assert.Equal(t, []string{}, d.TargetLocations)
	assert.Equal(t, 0, d.YearsExperience)
	assert.Nil(t, d.Resume)
	assert.Equal(t, "0 5 * * *", d.ScheduleCron)
	assert.Equal(t, "UTC", d.Timezone)
}

func TestBasicsGuardRequiresTrimmedNameAndEmail(t *testing.T) {
	cases := []struct {
		name, email string
	}{
		{"", ""},
		{"Ada", ""},
		{"", "ada@x.com"},
		{"   ", "ada@x.com"},
		{"Ada", " \t"},
	}
	for _, tc := range cases {
		s := NewStore()
		s.SetFullName(tc.name)
		s.SetEmail(tc.email)
		w := NewWizard(s)

		assert.False(t, w.Next())
		assert.Equal(t, StepBasics, w.Step())
		assert.True(t, w.BasicsAttempted())
		assert.False(t, w.PreferencesAttempted())
	}
}

func TestAdvanceScenario(t *testing.T) {
	s := NewStore()
	s.SetFullName("Ada")
	s.SetEmail("ada@x.com")
	w := NewWizard(s)

	require.True(t, w.Next())
	assert.Equal(t, StepPreferences, w.Step())
	assert.False(t, w.BasicsAttempted())

	assert.False(t, w.Next())
	assert.Equal(t, StepPreferences, w.Step())
	assert.True(t, w.PreferencesAttempted())

	problems := s.Draft().Problems(StepPreferences)
	fields := []string{}
	for _, p := range problems {
		fields = append(fields, p.Field)
	}
	assert.Equal(t, []string{"primary_role", "target_locations"}, fields)
}

func TestPreferencesGuardNeedsScheduleAndTimezone(t *testing.T) {
	s := NewStore()
	fillValid(s)
	s.SetScheduleCron(" ")
	w := NewWizard(s)
	require.True(t, w.Next())
	assert.False(t, w.Next())

	s.SetScheduleCron("0 6 * * *")
	s.SetTimezone("")
	assert.False(t, w.Next())

	s.SetTimezone("Europe/London")
	assert.True(t, w.Next())
	assert.Equal(t, StepResume, w.Step())

	// Resume is optional.
	assert.True(t, w.Next())
	assert.Equal(t, StepReview, w.Step())
	assert.False(t, w.Next())
}

func TestBackIsClampedAtBasics(t *testing.T) {
	w := NewWizard(NewStore())
	w.Back()
	assert.Equal(t, StepBasics, w.Step())
}

func TestToggleLocation(t *testing.T) {
	s := NewStore()
	s.ToggleLocation("Remote")
	s.ToggleLocation("Toronto")
	s.ToggleLocation("Remote")
	assert.Equal(t, []string{"Toronto"}, s.Draft().TargetLocations)

	s.SetTargetLocations([]string{"London", " London ", "", "New York"})
	assert.Equal(t, []string{"London", "New York"}, s.Draft().TargetLocations)
}

func TestYearsExperienceRange(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetYearsExperience(60))
	assert.True(t, model.IsValidationError(s.SetYearsExperience(61)))
	assert.True(t, model.IsValidationError(s.SetYearsExperience(-1)))
	assert.Equal(t, 60, s.Draft().YearsExperience)
}

func TestSubmitRevalidatesStaleDraft(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	walkToReview(t, w)

	// The draft is edited after the guards passed.
	s.SetFullName("")

	sub, err := w.BeginSubmit()
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.True(t, w.BasicsAttempted())
	assert.True(t, w.PreferencesAttempted())
	assert.False(t, w.Submitting())
}

func TestSubmitOnlyFromReview(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	_, err := w.BeginSubmit()
	assert.ErrorIs(t, err, ErrNotOnReview)
}

func TestSuccessfulSubmissionResetsDraftAndKeepsSnapshot(t *testing.T) {
	s := NewStore()
	fillValid(s)
	require.NoError(t, s.SetYearsExperience(7))
	resume := &model.FileRef{Path: "/tmp/cv.pdf"}
	s.SetResume(resume)
	w := NewWizard(s)
	walkToReview(t, w)

	sub, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.True(t, w.Submitting())
	assert.False(t, w.Complete())

	_, err = w.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitting)

	// Editing the live draft after submit does not leak into the snapshot.
	s.ToggleLocation("Toronto")
	assert.Equal(t, []string{"Remote", "London"}, sub.Snapshot.TargetLocations)
	assert.Same(t, resume, sub.Snapshot.Resume)

	w.Succeed(&model.OnboardingResponse{NextStep: "dashboard", Message: "Welcome"})

	assert.True(t, w.Complete())
	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, NewDraft(), s.Draft())
	assert.False(t, w.BasicsAttempted())

	summary := w.Summary()
	assert.Equal(t, "Ada Lovelace", summary.FullName)
	assert.Equal(t, []string{"Remote", "London"}, summary.TargetLocations)
	assert.Equal(t, 7, summary.YearsExperience)
	assert.Equal(t, "Welcome", w.Response().Message)
}

func TestBackFromReviewClearsCompletion(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	walkToReview(t, w)
	_, err := w.BeginSubmit()
	require.NoError(t, err)
	w.Succeed(&model.OnboardingResponse{Message: "ok"})

	w.Back()
	assert.Equal(t, StepResume, w.Step())
	assert.False(t, w.Complete())
	assert.Nil(t, w.Response())
	assert.Equal(t, s.Draft(), w.Summary(), "summary falls back to the live draft")
}

func TestBackDuringSubmitKeepsSnapshot(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	walkToReview(t, w)
	sub, err := w.BeginSubmit()
	require.NoError(t, err)

	w.Back()
	assert.Equal(t, StepResume, w.Step())
	assert.True(t, w.Submitting())

	w.Succeed(&model.OnboardingResponse{Message: "Welcome"})

	assert.Equal(t, StepReview, w.Step())
	assert.True(t, w.Complete())
	assert.Equal(t, sub.Snapshot, w.Summary())
	assert.Equal(t, "Ada Lovelace", w.Summary().FullName)
	assert.Equal(t, "Welcome", w.Response().Message)
}

func TestBackDuringSubmitThenFailShowsLiveDraft(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	walkToReview(t, w)
	_, err := w.BeginSubmit()
	require.NoError(t, err)

	w.Back()
	s.SetFullName("Grace Hopper")
	w.Fail(errors.New("upload rejected"))

	assert.Equal(t, StepResume, w.Step())
	assert.Equal(t, "Grace Hopper", w.Summary().FullName)
}

func TestFailedSubmissionKeepsDraft(t *testing.T) {
	s := NewStore()
	fillValid(s)
	w := NewWizard(s)
	walkToReview(t, w)
	before := s.Draft()

	_, err := w.BeginSubmit()
	require.NoError(t, err)
	w.Fail(errors.New("upload rejected"))

	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, before, s.Draft())
	assert.False(t, w.Complete())
	assert.False(t, w.Submitting())
	assert.Equal(t, "upload rejected", w.ErrorMessage())

	// Retrying needs no re-entry.
	_, err = w.BeginSubmit()
	assert.NoError(t, err)
}

func TestBuildForm(t *testing.T) {
	d := NewDraft()
	d.FullName = " Ada "
	d.Email = "ada@x.com"
	d.PrimaryRole = "Product Manager"
	d.TargetLocations = []string{"Remote", "New York"}
	d.YearsExperience = 4

	form := BuildForm(d)
	assert.Equal(t, []string{"Ada"}, form.Values("full_name"))
	assert.Equal(t, []string{"Remote", "New York"}, form.Values("target_locations"))
	assert.Equal(t, []string{"4"}, form.Values("years_experience"))
	assert.Equal(t, []string{"0 5 * * *"}, form.Values("schedule_cron"))
	assert.Equal(t, []string{"UTC"}, form.Values("timezone"))
	assert.False(t, form.HasFile("resume"))

	d.Resume = &model.FileRef{Path: "/tmp/cv.pdf"}
	assert.True(t, BuildForm(d).HasFile("resume"))
}
