package profile

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// SavedText is the confirmation shown after a successful update.
const SavedText = "Profile updated successfully."

// savedNoticeDuration is how long SavedText stays visible.
const savedNoticeDuration = 4 * time.Second

type profileLoadedMsg struct {
	user    string
	profile *model.Profile
	err     error
}

type profileSavedMsg struct {
	profile *model.Profile
	err     error
}

// clearNoticeMsg hides the saved notice unless a newer save replaced it.
type clearNoticeMsg struct {
	seq int
}

// Model is the profile viewer and editor.
type Model struct {
	env     *ui.Env
	profile *model.Profile

	form *huh.Form
	fb   *model.ProfileForm

	loaded  bool
	saving  bool
	err     error
	formErr error

	notice    string
	noticeSeq int

	width  int
	height int
}

// New creates a new profile view model.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:    env,
		fb:     &model.ProfileForm{},
		width:  width,
		height: height,
	}
}

// Init fetches the profile.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Capturing reports whether keystrokes belong to the edit form.
func (m Model) Capturing() bool {
	return m.form != nil
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.profile = msg.profile
		}
		return m, nil

	case profileSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.formErr = msg.err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.form = nil
		m.formErr = nil
		m.profile = msg.profile
		m.env.Cache.Set(query.ProfileKey(m.env.UserID()), msg.profile)
		m.noticeSeq++
		m.notice = SavedText
		seq := m.noticeSeq
		return m, tea.Tick(savedNoticeDuration, func(time.Time) tea.Msg {
			return clearNoticeMsg{seq: seq}
		})

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		switch {
		case key.Matches(msg, m.env.Keys.Back):
			return m, ui.Back
		case key.Matches(msg, m.env.Keys.Refresh):
			m.env.Invalidate(query.Profile)
			return m, m.load()
		case key.Matches(msg, m.env.Keys.Edit), key.Matches(msg, m.env.Keys.Select):
			if m.profile == nil {
				return m, nil
			}
			*m.fb = model.FormFromProfile(*m.profile)
			m.formErr = nil
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saving = true
		return m, m.save(m.fb.Update())
	case huh.StateAborted:
		m.form = nil
		m.formErr = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Headline").
				Placeholder("Senior Backend Engineer").
				Value(&m.fb.Headline),
			huh.NewText().
				Title("Summary").
				Lines(4).
				Value(&m.fb.Summary),
			huh.NewInput().
				Title("Skills").
				Description("Comma separated").
				Value(&m.fb.Skills),
			huh.NewInput().
				Title("Locations").
				Description("Comma separated").
				Value(&m.fb.Locations),
			huh.NewInput().
				Title("Work authorization").
				Value(&m.fb.WorkAuth),
			huh.NewConfirm().
				Title("Remote only").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.RemoteOnly),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the profile view.
func (m Model) View() string {
	var b strings.Builder

	if m.form != nil {
		b.WriteString(theme.TitleStyle.Render("Edit profile"))
		b.WriteString("\n")
		b.WriteString(m.form.View())
		if m.saving {
			b.WriteString("\n" + theme.DimmedStyle.Render("Saving..."))
		}
		if m.formErr != nil {
			b.WriteString("\n" + ui.ErrorText(m.formErr))
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	switch {
	case !m.loaded:
		return m.centered("Loading profile...")
	case m.profile == nil:
		return m.centered(ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("Press r to retry."))
	}

	b.WriteString(theme.TitleStyle.Render("Profile"))
	b.WriteString("\n")
	b.WriteString(renderProfile(*m.profile))
	if m.notice != "" {
		b.WriteString("\n\n" + theme.SuccessStyle.Render(m.notice))
	}
	if m.err != nil {
		b.WriteString("\n\n" + ui.ErrorText(m.err))
	}
	b.WriteString("\n\n" + theme.HelpStyle.Render("e edit · r refresh"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func renderProfile(p model.Profile) string {
	f := model.FormFromProfile(p)
	remote := "No"
	if f.RemoteOnly {
		remote = "Yes"
	}
	rows := [][2]string{
		{"Headline", f.Headline},
		{"Summary", f.Summary},
		{"Skills", f.Skills},
		{"Locations", f.Locations},
		{"Work authorization", f.WorkAuth},
		{"Remote only", remote},
	}
	if p.YearsExperience != nil {
		rows = append(rows, [2]string{"Experience", pluralYears(*p.YearsExperience)})
	}

	label := theme.LabelStyle.Width(20)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		v := r[1]
		if v == "" {
			v = theme.DimmedStyle.Render("Not set")
		} else {
			v = theme.ValueStyle.Render(v)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r[0]), v))
	}
	return strings.Join(lines, "\n")
}

func pluralYears(n int) string {
	if n == 1 {
		return "1 year"
	}
	return strconv.Itoa(n) + " years"
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		p, err := query.Fetch(context.Background(), env.Cache, query.ProfileKey(user),
			func(ctx context.Context) (*model.Profile, error) {
				return env.Client.GetProfile(ctx, opts)
			},
		)
		return profileLoadedMsg{user: user, profile: p, err: err}
	}
}

func (m Model) save(upd model.ProfileUpdate) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		p, err := env.Client.UpdateProfile(context.Background(), upd, opts)
		return profileSavedMsg{profile: p, err: err}
	}
}

// SetSize updates the profile view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
