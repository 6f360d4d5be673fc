package resumes

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

type resumesLoadedMsg struct {
	user    string
	resumes []model.Resume
	err     error
}

type detailLoadedMsg struct {
	id     string
	detail *model.ResumeDetail
	err    error
}

// queuedMsg reports the result of a tailor or optimize request.
type queuedMsg struct {
	id     string
	action string
	err    error
}

// Model is the resume library with an inline detail pane.
type Model struct {
	env         *ui.Env
	resumes     []model.Resume
	selectedIdx int

	// detailID is the resume shown in the viewport, "" in list mode.
	detailID string
	detail   *model.ResumeDetail
	viewport viewport.Model

	// queued holds resume ids with a job request in flight.
	queued map[string]bool

	loaded    bool
	err       error
	detailErr error

	width  int
	height int
}

// New creates a new resume library view.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:      env,
		viewport: viewport.New(width, height-2),
		queued:   make(map[string]bool),
		width:    width,
		height:   height,
	}
}

// Init loads the library.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Capturing reports whether the view is consuming text input.
func (m Model) Capturing() bool { return false }

// Update handles messages for the resume library.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resumesLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.resumes = msg.resumes
			if m.selectedIdx >= len(m.resumes) {
				m.selectedIdx = max(0, len(m.resumes)-1)
			}
		}
		return m, nil

	case detailLoadedMsg:
		if msg.id != m.detailID {
			return m, nil
		}
		m.detailErr = msg.err
		m.detail = msg.detail
		m.viewport.SetContent(m.renderDetail())
		m.viewport.GotoTop()
		return m, nil

	case queuedMsg:
		delete(m.queued, msg.id)
		if msg.err != nil {
			return m, ui.Flash(fmt.Sprintf("Could not %s resume: %s", msg.action, api.UserMessage(msg.err)), true)
		}
		m.env.Invalidate(query.Resumes)
		verb := "Tailoring"
		if msg.action == "optimize" {
			verb = "Optimization"
		}
		return m, tea.Batch(
			ui.Flash(verb+" queued. You'll get a notification when it's done.", false),
			m.load(),
		)

	case tea.KeyMsg:
		if m.detailID != "" {
			return m.handleDetailKeys(msg)
		}
		return m.handleListKeys(msg)
	}

	if m.detailID != "" {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.env.Keys
	switch {
	case key.Matches(msg, k.Back):
		return m, ui.Back
	case key.Matches(msg, k.Down):
		if m.selectedIdx < len(m.resumes)-1 {
			m.selectedIdx++
		}
	case key.Matches(msg, k.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case key.Matches(msg, k.Refresh):
		m.env.Invalidate(query.Resumes)
		return m, m.load()
	case key.Matches(msg, k.Select):
		if r, ok := m.selected(); ok {
			return m, m.Open(r.ID)
		}
	case key.Matches(msg, k.Tailor):
		return m.queue("tailor")
	case key.Matches(msg, k.Optimize):
		return m.queue("optimize")
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.env.Keys.Back) {
		m.detailID = ""
		m.detail = nil
		m.detailErr = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Open shows the parsed detail of resume id.
func (m *Model) Open(id string) tea.Cmd {
	m.detailID = id
	m.detail = nil
	m.detailErr = nil
	m.viewport.SetContent(theme.DimmedStyle.Render("Loading resume..."))
	return m.loadDetail(id)
}

func (m Model) queue(action string) (Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || m.queued[r.ID] {
		return m, nil
	}
	m.queued[r.ID] = true

	env := m.env
	opts := env.Options()
	return m, func() tea.Msg {
		var err error
		if action == "optimize" {
			err = env.Client.OptimizeResume(context.Background(), r.ID, opts)
		} else {
			err = env.Client.TailorResume(context.Background(), r.ID, opts)
		}
		return queuedMsg{id: r.ID, action: action, err: err}
	}
}

func (m Model) selected() (model.Resume, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.resumes) {
		return model.Resume{}, false
	}
	return m.resumes[m.selectedIdx], true
}

// View renders the resume library.
func (m Model) View() string {
	if m.detailID != "" {
		hint := theme.HelpStyle.Render("esc back · j/k scroll")
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), hint)
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Resumes"))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
	case len(m.resumes) == 0 && m.err == nil:
		b.WriteString(theme.HelpStyle.Render("No resumes yet. Upload one during onboarding (press 9)."))
	default:
		for i, r := range m.resumes {
			line := m.renderRow(r)
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + ui.ErrorText(m.err))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("enter open | t tailor | o optimize | esc back"))
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) renderRow(r model.Resume) string {
	kind := lipgloss.NewStyle().Foreground(theme.ColorMagenta).Width(9).Render(r.Kind())
	name := r.OriginalFilename
	if name == "" {
		name = "Untitled"
	}
	score := theme.DimmedStyle.Render("ATS --")
	if r.ATSScore != nil {
		score = theme.FitScoreStyle(float64(*r.ATSScore) / 100).Render(fmt.Sprintf("ATS %d", *r.ATSScore))
	}
	line := fmt.Sprintf("%s %s  %s  %s", kind, name, score, theme.DimmedStyle.Render(ui.RelativeTime(r.CreatedAt.Time)))
	if m.queued[r.ID] {
		line += theme.NoticeStyle.Render(" ⟳")
	}
	return line
}

func (m Model) renderDetail() string {
	if m.detailErr != nil {
		return ui.ErrorText(m.detailErr)
	}
	if m.detail == nil {
		return ""
	}
	return theme.RenderMarkdown(m.detail.Markdown(), m.width-2)
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		resumes, err := query.Fetch(context.Background(), env.Cache, query.ResumesKey(user),
			func(ctx context.Context) ([]model.Resume, error) {
				return env.Client.ListResumes(ctx, opts)
			},
		)
		return resumesLoadedMsg{user: user, resumes: resumes, err: err}
	}
}

func (m Model) loadDetail(id string) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		d, err := query.Fetch(context.Background(), env.Cache, query.ResumeKey(id, opts.Identity),
			func(ctx context.Context) (*model.ResumeDetail, error) {
				return env.Client.GetResume(ctx, id, opts)
			},
		)
		return detailLoadedMsg{id: id, detail: d, err: err}
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.detailID != "" {
		m.viewport.SetContent(m.renderDetail())
	}
}
