package digest

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

// EmptyText is shown when the server has not produced a digest yet.
const EmptyText = "No digest available yet"

// digestLoadedMsg carries the latest digest.
type digestLoadedMsg struct {
	user   string
	digest *model.Digest
	err    error
}

// Model shows the latest daily digest.
type Model struct {
	env      *ui.Env
	viewport viewport.Model
	digest   *model.Digest
	missing  bool
	loaded   bool
	err      error

	width  int
	height int
}

// New creates a new digest view model.
func New(env *ui.Env, width, height int) Model {
	vp := viewport.New(width, height)
	return Model{
		env:      env,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init fetches the latest digest.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Capturing reports whether the view is consuming text input.
func (m Model) Capturing() bool { return false }

// Update handles messages for the digest view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case digestLoadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		m.loaded = true
		m.err = nil
		m.missing = false
		switch {
		case api.IsNotFound(msg.err):
			m.digest = nil
			m.missing = true
		case msg.err != nil:
			m.err = msg.err
		default:
			m.digest = msg.digest
		}
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.env.Keys.Back):
			return m, ui.Back
		case key.Matches(msg, m.env.Keys.Refresh):
			m.env.Invalidate(query.Digest)
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the digest view.
func (m Model) View() string {
	switch {
	case !m.loaded:
		return m.centered("Loading digest...")
	case m.missing:
		return m.centered(EmptyText)
	case m.err != nil && m.digest == nil:
		return m.centered(ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("Press r to retry."))
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	if m.digest == nil {
		return ""
	}
	return theme.RenderMarkdown(Markdown(*m.digest), m.width-2)
}

// Markdown renders a digest as a markdown document.
func Markdown(d model.Digest) string {
	var b strings.Builder
	b.WriteString("# Daily Digest\n\n")
	if !d.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", d.GeneratedAt.Format("Monday, January 2 at 15:04"))
	}
	if len(d.Items) == 0 {
		b.WriteString("No new matches today.\n")
		return b.String()
	}
	for i, item := range d.Items {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, item.Title)

		var meta []string
		if item.Company != "" {
			meta = append(meta, "**"+item.Company+"**")
		}
		if item.Location != "" {
			meta = append(meta, item.Location)
		}
		if item.Remote {
			meta = append(meta, "Remote")
		}
		if item.FitScore != nil {
			meta = append(meta, fmt.Sprintf("fit %.0f%%", *item.FitScore*100))
		}
		if len(meta) > 0 {
			b.WriteString(strings.Join(meta, " · ") + "\n\n")
		}
		if item.WhyFit != "" {
			b.WriteString(item.WhyFit + "\n\n")
		}
		if item.URL != "" {
			fmt.Fprintf(&b, "<%s>\n\n", item.URL)
		}
	}
	return b.String()
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

// load fetches without retries so a missing digest is reported at once.
func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		d, err := query.Fetch(context.Background(), env.Cache, query.DigestKey(user),
			func(ctx context.Context) (*model.Digest, error) {
				return env.Client.LatestDigest(ctx, opts)
			},
			query.NoRetry(),
		)
		return digestLoadedMsg{user: user, digest: d, err: err}
	}
}

// SetSize updates the digest view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderContent())
}
