package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/onboarding"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// submittedMsg carries the server response to an onboarding submission.
type submittedMsg struct {
	resp *model.OnboardingResponse
	err  error
}

// previewLoadedMsg carries the parsed resume named by a submission.
type previewLoadedMsg struct {
	id     string
	detail *model.ResumeDetail
	err    error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies. Values are copied
// into the draft store when a step's form completes.
type formBindings struct {
	fullName   string
	email      string
	years      string
	role       string
	locations  []string
	cron       string
	timezone   string
	resumePath string
}

// load copies the draft into the bindings.
func (fb *formBindings) load(d onboarding.Draft) {
	fb.fullName = d.FullName
	fb.email = d.Email
	fb.years = strconv.Itoa(d.YearsExperience)
	fb.role = d.PrimaryRole
	fb.locations = append([]string(nil), d.TargetLocations...)
	fb.cron = d.ScheduleCron
	fb.timezone = d.Timezone
	fb.resumePath = ""
	if d.Resume != nil {
		fb.resumePath = d.Resume.Path
	}
}

// Model is the onboarding wizard view. Navigation rules live in
// onboarding.Wizard; this view only renders forms and forwards input.
type Model struct {
	env    *ui.Env
	wizard *onboarding.Wizard

	form     *huh.Form
	fb       *formBindings
	fieldErr error

	preview    *model.ResumeDetail
	previewErr error

	width  int
	height int
}

// New creates a wizard view over a fresh draft.
func New(env *ui.Env, width, height int) Model {
	m := Model{
		env:    env,
		wizard: onboarding.NewWizard(onboarding.NewStore()),
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	return m
}

// Init builds the form for the current step.
func (m *Model) Init() tea.Cmd {
	if m.wizard.Step() == onboarding.StepBasics {
		store := m.wizard.Store()
		d := store.Draft()
		if d.Email == "" {
			store.SetEmail(m.env.Session.Current().Email)
		}
	}
	return m.openStep()
}

// Capturing reports whether keystrokes belong to a step form.
func (m Model) Capturing() bool {
	return m.form != nil
}

// Wizard exposes the state machine, for tests and the status bar.
func (m Model) Wizard() *onboarding.Wizard {
	return m.wizard
}

// openStep rebuilds the form for the wizard's current step from the
// draft. The review step has no form.
func (m *Model) openStep() tea.Cmd {
	m.fb.load(m.wizard.Store().Draft())
	m.form = m.buildForm(m.wizard.Step())
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

// Update handles messages for the wizard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		if msg.err != nil {
			m.wizard.Fail(msg.err)
			m.env.Logger.Warn("onboarding submission failed", zap.Error(msg.err))
			return m, nil
		}
		m.wizard.Succeed(msg.resp)
		m.env.Invalidate(query.Profile)
		m.env.Invalidate(query.SearchPrefs)
		m.env.Invalidate(query.Resumes)
		m.form = nil
		if msg.resp != nil && msg.resp.ResumeVersionID != "" {
			return m, m.loadPreview(msg.resp.ResumeVersionID)
		}
		return m, nil

	case previewLoadedMsg:
		resp := m.wizard.Response()
		if resp == nil || resp.ResumeVersionID != msg.id {
			return m, nil
		}
		m.preview = msg.detail
		m.previewErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleReviewKeys(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleReviewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.env.Keys.Back):
		m.back()
		return m, m.openStep()
	case key.Matches(msg, m.env.Keys.Select):
		if m.wizard.Submitting() {
			return m, nil
		}
		if m.wizard.Complete() {
			// Start over with the already reset draft.
			m.wizard = onboarding.NewWizard(m.wizard.Store())
			m.preview = nil
			m.previewErr = nil
			return m, m.Init()
		}
		return m.submit()
	}
	return m, nil
}

// back leaves the current step and forgets a resume preview tied to a
// submission that is no longer on display.
func (m *Model) back() {
	m.wizard.Back()
	m.fieldErr = nil
	m.preview = nil
	m.previewErr = nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.apply(m.wizard.Step()); err != nil {
			m.fieldErr = err
			return m, m.openStep()
		}
		m.fieldErr = nil
		m.wizard.Next()
		return m, m.openStep()
	case huh.StateAborted:
		// Keep what was typed before going back.
		_ = m.apply(m.wizard.Step())
		if m.wizard.Step() == onboarding.StepBasics {
			m.fieldErr = nil
			return m, tea.Batch(m.openStep(), ui.Back)
		}
		m.back()
		return m, m.openStep()
	}
	return m, cmd
}

// apply copies the bindings of step into the draft store.
func (m *Model) apply(step onboarding.Step) error {
	s := m.wizard.Store()
	switch step {
	case onboarding.StepBasics:
		s.SetFullName(m.fb.fullName)
		s.SetEmail(m.fb.email)
		years := strings.TrimSpace(m.fb.years)
		if years == "" {
			years = "0"
		}
		n, err := strconv.Atoi(years)
		if err != nil {
			return &model.ValidationError{Field: "years_experience", Message: "Years of experience must be a whole number."}
		}
		return s.SetYearsExperience(n)
	case onboarding.StepPreferences:
		s.SetPrimaryRole(m.fb.role)
		s.SetTargetLocations(m.fb.locations)
		s.SetScheduleCron(m.fb.cron)
		s.SetTimezone(m.fb.timezone)
	case onboarding.StepResume:
		path := strings.TrimSpace(m.fb.resumePath)
		if path == "" {
			s.SetResume(nil)
			return nil
		}
		s.SetResume(&model.FileRef{Path: path, Name: filepath.Base(path)})
	}
	return nil
}

func (m Model) submit() (Model, tea.Cmd) {
	sub, err := m.wizard.BeginSubmit()
	if err != nil {
		m.fieldErr = err
		return m, nil
	}
	m.fieldErr = nil
	m.preview = nil
	m.previewErr = nil

	env := m.env
	opts := env.Options()
	form := sub.Form
	return m, func() tea.Msg {
		resp, err := env.Client.SubmitOnboarding(context.Background(), form, opts)
		return submittedMsg{resp: resp, err: err}
	}
}

func (m Model) buildForm(step onboarding.Step) *huh.Form {
	var group *huh.Group
	switch step {
	case onboarding.StepBasics:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Value(&m.fb.fullName),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email),
			huh.NewInput().
				Title("Years of experience").
				Placeholder("0").
				Value(&m.fb.years),
		)
	case onboarding.StepPreferences:
		schedules := make([]huh.Option[string], len(model.ScheduleOptions))
		for i, s := range model.ScheduleOptions {
			schedules[i] = huh.NewOption(s.Label, s.Cron)
		}
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Title("Primary role").
				Options(huh.NewOptions(model.RoleOptions...)...).
				Value(&m.fb.role),
			huh.NewMultiSelect[string]().
				Title("Target locations").
				Options(huh.NewOptions(model.LocationOptions...)...).
				Value(&m.fb.locations),
			huh.NewSelect[string]().
				Title("Digest schedule").
				Options(schedules...).
				Value(&m.fb.cron),
			huh.NewSelect[string]().
				Title("Timezone").
				Options(huh.NewOptions(model.TimezoneOptions...)...).
				Value(&m.fb.timezone),
		)
	case onboarding.StepResume:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Resume file").
				Description("Path to a PDF or DOCX. Leave blank to skip.").
				Placeholder("~/Documents/resume.pdf").
				Value(&m.fb.resumePath),
		)
	default:
		return nil
	}
	return huh.NewForm(group).
		WithKeyMap(ui.FormKeyMap()).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height) - 4)
}

// View renders the wizard.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Set up your job search"))
	b.WriteString("\n")
	b.WriteString(StepIndicator(m.wizard.Step()))
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.form.View())
	} else {
		b.WriteString(m.renderReview())
	}

	if problems := m.problems(); len(problems) > 0 {
		b.WriteString("\n")
		for _, p := range problems {
			b.WriteString(theme.ErrorStyle.Render("• "+p) + "\n")
		}
	}
	if m.fieldErr != nil {
		b.WriteString("\n" + ui.ErrorText(m.fieldErr))
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

// problems lists unmet requirements of the current step, shown only after
// a failed attempt to leave it.
func (m Model) problems() []string {
	step := m.wizard.Step()
	d := m.wizard.Store().Draft()
	var out []string
	collect := func(s onboarding.Step) {
		for _, p := range d.Problems(s) {
			out = append(out, p.Message)
		}
	}
	switch {
	case step == onboarding.StepBasics && m.wizard.BasicsAttempted():
		collect(onboarding.StepBasics)
	case step == onboarding.StepPreferences && m.wizard.PreferencesAttempted():
		collect(onboarding.StepPreferences)
	case step == onboarding.StepReview && !m.wizard.Complete() &&
		m.wizard.BasicsAttempted() && m.wizard.PreferencesAttempted():
		collect(onboarding.StepBasics)
		collect(onboarding.StepPreferences)
	}
	return out
}

// StepIndicator renders the step list with the current step highlighted.
func StepIndicator(current onboarding.Step) string {
	parts := make([]string, 0, onboarding.StepCount)
	for _, s := range onboarding.Steps() {
		label := fmt.Sprintf("%d %s", int(s)+1, s)
		switch {
		case s == current:
			parts = append(parts, theme.SelectedCardStyle.Render("● "+label))
		case s < current:
			parts = append(parts, theme.SuccessStyle.Render("✓ "+label))
		default:
			parts = append(parts, theme.DimmedStyle.Render("○ "+label))
		}
	}
	return strings.Join(parts, theme.DimmedStyle.Render("  ›  "))
}

func (m Model) renderReview() string {
	w := m.wizard
	d := w.Summary()

	resume := "None"
	if d.Resume != nil {
		resume = d.Resume.Name
		if resume == "" {
			resume = filepath.Base(d.Resume.Path)
		}
	}
	rows := [][2]string{
		{"Full name", d.FullName},
		{"Email", d.Email},
		{"Years of experience", strconv.Itoa(d.YearsExperience)},
		{"Primary role", d.PrimaryRole},
		{"Target locations", strings.Join(d.TargetLocations, ", ")},
		{"Digest schedule", scheduleLabel(d.ScheduleCron)},
		{"Timezone", d.Timezone},
		{"Resume", resume},
	}

	label := theme.LabelStyle.Width(22)
	lines := make([]string, 0, len(rows)+8)
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r[0]), theme.ValueStyle.Render(r[1])))
	}
	lines = append(lines, "")

	switch {
	case w.Submitting():
		lines = append(lines, theme.DimmedStyle.Render("Submitting..."))
	case w.Complete():
		msg := "You're all set."
		if resp := w.Response(); resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		lines = append(lines, theme.SuccessStyle.Render(msg))
		if resp := w.Response(); resp != nil && resp.ResumeDocURL != "" {
			lines = append(lines, theme.DimmedStyle.Render("Resume document: "+resp.ResumeDocURL))
		}
		lines = append(lines, m.renderPreview())
		lines = append(lines, theme.HelpStyle.Render("enter start over · esc back"))
	default:
		if w.Err() != nil {
			lines = append(lines, theme.ErrorStyle.Render(w.ErrorMessage()), "")
		}
		lines = append(lines, theme.HelpStyle.Render("enter submit · esc back"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPreview() string {
	resp := m.wizard.Response()
	if resp == nil || resp.ResumeVersionID == "" {
		return ""
	}
	switch {
	case m.previewErr != nil:
		return theme.ErrorStyle.Render("Could not load the parsed resume: " + api.UserMessage(m.previewErr))
	case m.preview == nil:
		return theme.DimmedStyle.Render("Loading parsed resume...")
	}
	return theme.RenderMarkdown(m.preview.Markdown(), m.width-6)
}

func scheduleLabel(cron string) string {
	for _, s := range model.ScheduleOptions {
		if s.Cron == cron {
			return s.Label
		}
	}
	return cron
}

func (m Model) loadPreview(id string) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		d, err := query.Fetch(context.Background(), env.Cache, query.ResumeKey(id, opts.Identity),
			func(ctx context.Context) (*model.ResumeDetail, error) {
				return env.Client.GetResume(ctx, id, opts)
			},
		)
		return previewLoadedMsg{id: id, detail: d, err: err}
	}
}

// SetSize updates the wizard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(ui.FormWidth(width))
	}
}
