package appform

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// createdMsg reports the result of creating an application.
type createdMsg struct {
	app *model.Application
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title   string
	company string
	link    string
}

// Model is the form for tracking an application that did not come from
// the feed.
type Model struct {
	env    *ui.Env
	form   *huh.Form
	fb     *formBindings
	saving bool
	err    error
	width  int
	height int
}

// New creates a new application form model.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:    env,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start clears the form for a new entry.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{}
	m.err = nil
	m.saving = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Capturing reports whether keystrokes belong to the form.
func (m Model) Capturing() bool { return true }

// Update handles messages for the application form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(createdMsg); ok {
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.form = nil
		m.env.Invalidate(query.Applications)
		return m, tea.Batch(
			ui.Flash(fmt.Sprintf("Tracking %q.", msg.app.Title), false),
			ui.ApplicationsChanged,
			ui.Back,
		)
	}

	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saving = true
		return m, m.create(model.TrackRequest{
			Title:   strings.TrimSpace(m.fb.title),
			Company: strings.TrimSpace(m.fb.company),
			URL:     strings.TrimSpace(m.fb.link),
		})
	case huh.StateAborted:
		m.form = nil
		return m, ui.Back
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Staff Engineer").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Company").
				Value(&m.fb.company),
			huh.NewInput().
				Title("Posting URL").
				Placeholder("https://... (optional)").
				Value(&m.fb.link).
				Validate(validateOptionalURL),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) create(req model.TrackRequest) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		app, err := env.Client.CreateApplication(context.Background(), req, opts)
		return createdMsg{app: app, err: err}
	}
}

// View renders the application form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Track an application"))
	b.WriteString("\n")
	b.WriteString(m.form.View())
	if m.saving {
		b.WriteString("\n" + theme.DimmedStyle.Render("Saving..."))
	}
	if m.err != nil {
		b.WriteString("\n" + ui.ErrorText(m.err))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(fieldName))
		}
		return nil
	}
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("enter a full http(s) link")
	}
	return nil
}
