package signin

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// SignedInMsg is emitted once a session has been issued and stored.
type SignedInMsg struct {
	Session model.Session
}

// signInResultMsg carries the outcome of the sign-in request.
type signInResultMsg struct {
	session model.Session
	err     error
}

// Model is the sign-in screen shown while no session exists.
type Model struct {
	env     *ui.Env
	form    *huh.Form
	email   *string
	pending bool
	err     error
	notice  string
	spinner spinner.Model
	width   int
	height  int
}

// New creates a new sign-in view.
func New(env *ui.Env, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	email := ""
	return Model{
		env:     env,
		email:   &email,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start shows the email form. notice, if set, explains why sign-in is
// needed (for example an expired session).
func (m *Model) Start(notice string) tea.Cmd {
	m.notice = notice
	m.pending = false
	m.err = nil
	m.form = m.buildForm()
	return m.form.Init()
}

// Capturing reports whether keystrokes belong to the form.
func (m Model) Capturing() bool { return true }

// Update handles messages for the sign-in view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		m.pending = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.form = nil
		m.notice = ""
		sess := msg.session
		return m, func() tea.Msg { return SignedInMsg{Session: sess} }

	case spinner.TickMsg:
		if m.pending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.form == nil || m.pending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		email := strings.TrimSpace(*m.email)
		// Bad addresses are rejected here so nothing is sent.
		if _, err := api.ValidateEmail(email); err != nil {
			m.err = err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.pending = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.signIn(email))
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Description("We'll sign you in with this address.").
				Placeholder("you@example.com").
				Value(m.email),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(min(ui.FormWidth(m.width), 60)).WithHeight(6)
}

func (m Model) signIn(email string) tea.Cmd {
	env := m.env
	return func() tea.Msg {
		sess, err := env.Session.SignIn(context.Background(), email)
		return signInResultMsg{session: sess, err: err}
	}
}

// View renders the sign-in screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Sign in to Vanta"))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(theme.NoticeStyle.Render(m.notice) + "\n\n")
	}
	switch {
	case m.pending:
		b.WriteString(m.spinner.View() + " Signing in as " + *m.email + "...")
	case m.form != nil:
		b.WriteString(m.form.View())
	}
	if m.err != nil {
		b.WriteString("\n" + ui.ErrorText(m.err))
	}
	b.WriteString("\n\n" + theme.HelpStyle.Render("enter continue · esc quit"))

	panel := theme.DetailPanelStyle.Width(min(m.width-4, 70)).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
