// Package onboarding implements the four-step onboarding wizard: a draft
// store with named setters and a state machine that guards each step and
// freezes a snapshot at submit time.
package onboarding

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
)

// Step is a wizard page.
type Step int

const (
	StepBasics Step = iota
	StepPreferences
	StepResume
	StepReview
)

// StepCount is the number of wizard steps.
const StepCount = 4

var stepNames = [StepCount]string{"Basics", "Preferences", "Resume", "Review"}

func (s Step) String() string {
	if s < 0 || s >= StepCount {
		return "Unknown"
	}
	return stepNames[s]
}

// Steps returns every step in order.
func Steps() []Step {
	return []Step{StepBasics, StepPreferences, StepResume, StepReview}
}

var (
	// ErrNotOnReview is returned when Submit is attempted before the last
	// step.
	ErrNotOnReview = errors.New("submit is only available on the review step")

	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("submission already in progress")

	// ErrIncomplete is returned when the draft fails re-validation at
	// submit time.
	ErrIncomplete = &model.ValidationError{Message: "Complete the basics and preferences steps before submitting."}
)

// Submission is a request ready to be sent.
type Submission struct {
	Snapshot Draft
	Form     *api.Form
}

// Wizard is the onboarding state machine. Like the draft store it is owned
// by one update loop.
type Wizard struct {
	store *Store
	step  Step

	basicsAttempted      bool
	preferencesAttempted bool

	submitting bool
	complete   bool
	snapshot   *Draft
	response   *model.OnboardingResponse
	err        error
}

// NewWizard starts on the Basics step.
func NewWizard(store *Store) *Wizard {
	return &Wizard{store: store}
}

// Store returns the draft store the wizard guards.
func (w *Wizard) Store() *Store { return w.store }

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// BasicsAttempted reports whether an attempt to leave Basics failed.
func (w *Wizard) BasicsAttempted() bool { return w.basicsAttempted }

// PreferencesAttempted reports whether an attempt to leave Preferences
// failed.
func (w *Wizard) PreferencesAttempted() bool { return w.preferencesAttempted }

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool { return w.submitting }

// Complete reports whether the last submission succeeded and is still
// being confirmed.
func (w *Wizard) Complete() bool { return w.complete }

// Response returns the server acknowledgement of a completed submission.
func (w *Wizard) Response() *model.OnboardingResponse { return w.response }

// Err returns the failure of the last submission, if any.
func (w *Wizard) Err() error { return w.err }

// Summary returns the draft to show on the Review step: the frozen
// snapshot once a submission has started, the live draft otherwise.
func (w *Wizard) Summary() Draft {
	if w.snapshot != nil {
		return w.snapshot.Clone()
	}
	return w.store.Draft()
}

// Next advances one step if the current step's guard passes. A failed
// attempt marks the step's validation flag and leaves the step unchanged.
func (w *Wizard) Next() bool {
	d := w.store.Draft()
	switch w.step {
	case StepBasics:
		if !d.BasicsValid() {
			w.basicsAttempted = true
			return false
		}
	case StepPreferences:
		if !d.PreferencesValid() {
			w.preferencesAttempted = true
			return false
		}
	case StepReview:
		return false
	}
	w.step++
	return true
}

// Back moves one step back, never before Basics. Leaving Review drops the
// confirmation of a completed or failed submission.
func (w *Wizard) Back() {
	// An in-flight submission keeps its snapshot for Succeed to show.
	if w.step == StepReview && !w.submitting {
		w.complete = false
		w.response = nil
		w.err = nil
		w.snapshot = nil
	}
	if w.step > StepBasics {
		w.step--
	}
}

// BeginSubmit re-validates the draft and, if it passes, freezes a snapshot
// and builds the multipart payload. The caller sends the form and reports
// the result with Succeed or Fail.
func (w *Wizard) BeginSubmit() (*Submission, error) {
	if w.step != StepReview {
		return nil, ErrNotOnReview
	}
	if w.submitting {
		return nil, ErrSubmitting
	}

	d := w.store.Draft()
	if !d.BasicsValid() || !d.PreferencesValid() {
		w.basicsAttempted = true
		w.preferencesAttempted = true
		return nil, ErrIncomplete
	}

	snap := d.Clone()
	w.snapshot = &snap
	w.complete = false
	w.response = nil
	w.err = nil
	w.submitting = true

	return &Submission{Snapshot: snap.Clone(), Form: BuildForm(snap)}, nil
}

// Succeed records a successful submission: the draft is reset, the wizard
// is forced onto Review and the frozen snapshot stays on display.
func (w *Wizard) Succeed(resp *model.OnboardingResponse) {
	w.store.Reset()
	w.basicsAttempted = false
	w.preferencesAttempted = false
	w.submitting = false
	w.complete = true
	w.response = resp
	w.err = nil
	w.step = StepReview
}

// Fail records a failed submission. The draft and step are kept so the
// user can retry.
func (w *Wizard) Fail(err error) {
	w.submitting = false
	w.complete = false
	w.err = err
	if w.step != StepReview {
		w.snapshot = nil
	}
}

// ErrorMessage returns the inline text for the last failure.
func (w *Wizard) ErrorMessage() string {
	return api.UserMessage(w.err)
}

// BuildForm encodes a draft as the onboarding multipart payload. The
// resume part is omitted when no file was chosen.
func BuildForm(d Draft) *api.Form {
	form := api.NewForm().
		Add("full_name", strings.TrimSpace(d.FullName)).
		Add("email", strings.TrimSpace(d.Email)).
		Add("primary_role", d.PrimaryRole)
	for _, loc := range d.TargetLocations {
		form.Add("target_locations", loc)
	}
	form.Add("years_experience", strconv.Itoa(d.YearsExperience)).
		Add("schedule_cron", d.ScheduleCron).
		Add("timezone", d.Timezone)
	if d.Resume != nil {
		form.AddFile("resume", *d.Resume)
	}
	return form
}
