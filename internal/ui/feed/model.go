package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// PageSize is the number of postings requested per page.
const PageSize = 20

// feedLoadedMsg carries one page of the feed.
type feedLoadedMsg struct {
	filter model.FeedFilter
	page   *model.FeedPage
	err    error
}

// trackedMsg reports the result of tracking a posting.
type trackedMsg struct {
	jobID string
	title string
	err   error
}

// hiddenMsg reports the result of hiding a posting.
type hiddenMsg struct {
	jobID string
	err   error
}

// filterBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type filterBindings struct {
	location   string
	remoteOnly bool
}

// Model is the ranked job feed.
type Model struct {
	env    *ui.Env
	filter model.FeedFilter
	page   *model.FeedPage
	cursor int

	// busy holds posting ids with a track or hide request in flight.
	busy map[string]bool

	form *huh.Form
	fb   *filterBindings

	loading bool
	err     error

	width  int
	height int
}

// New creates a new feed view model.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:    env,
		filter: model.FeedFilter{Page: 1, Limit: PageSize},
		busy:   make(map[string]bool),
		fb:     &filterBindings{},
		width:  width,
		height: height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.load(m.filter)
}

// Capturing reports whether keystrokes belong to the filter form.
func (m Model) Capturing() bool {
	return m.form != nil
}

// Filter returns the active filter.
func (m Model) Filter() model.FeedFilter {
	return m.filter
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case feedLoadedMsg:
		if msg.filter != m.filter {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.page = msg.page
			if m.cursor >= len(m.page.Items) {
				m.cursor = max(0, len(m.page.Items)-1)
			}
		}
		return m, nil

	case trackedMsg:
		delete(m.busy, msg.jobID)
		if msg.err != nil {
			return m, ui.Flash(fmt.Sprintf("Could not track %q: %s", msg.title, api.UserMessage(msg.err)), true)
		}
		m.env.Invalidate(query.Applications)
		return m, tea.Batch(
			ui.Flash(fmt.Sprintf("Tracking %q.", msg.title), false),
			ui.ApplicationsChanged,
		)

	case hiddenMsg:
		delete(m.busy, msg.jobID)
		if msg.err != nil {
			return m, ui.Flash("Could not hide posting: "+api.UserMessage(msg.err), true)
		}
		m.env.Invalidate(query.Feed)
		return m, m.load(m.filter)

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.handleKeys(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.env.Keys
	switch {
	case key.Matches(msg, k.Back):
		return m, ui.Back
	case key.Matches(msg, k.Down):
		if m.page != nil && m.cursor < len(m.page.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Refresh):
		m.env.Invalidate(query.Feed)
		return m, m.load(m.filter)
	case key.Matches(msg, k.Filter):
		m.fb.location = m.filter.Location
		m.fb.remoteOnly = m.filter.RemoteOnly
		m.form = m.buildForm()
		return m, m.form.Init()
	case key.Matches(msg, k.NextPage):
		if m.page != nil && m.page.HasNext() {
			m.filter.Page++
			m.cursor = 0
			return m, m.load(m.filter)
		}
	case key.Matches(msg, k.PrevPage):
		if m.filter.Page > 1 {
			m.filter.Page--
			m.cursor = 0
			return m, m.load(m.filter)
		}
	case key.Matches(msg, k.Track):
		if item, ok := m.selected(); ok && !m.busy[item.ID] {
			m.busy[item.ID] = true
			return m, m.track(item)
		}
	case key.Matches(msg, k.Hide):
		if item, ok := m.selected(); ok && !m.busy[item.ID] {
			m.busy[item.ID] = true
			return m, m.hide(item)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		m.filter = model.FeedFilter{
			Location:   strings.TrimSpace(m.fb.location),
			RemoteOnly: m.fb.remoteOnly,
			Page:       1,
			Limit:      PageSize,
		}
		m.cursor = 0
		m.env.Logger.Debug("feed filter changed",
			zap.String("location", m.filter.Location),
			zap.Bool("remote_only", m.filter.RemoteOnly),
		)
		return m, m.load(m.filter)
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Location").
				Placeholder("Any location").
				Value(&m.fb.location),
			huh.NewConfirm().
				Title("Remote only").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.remoteOnly),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) selected() (model.FeedItem, bool) {
	if m.page == nil || m.cursor < 0 || m.cursor >= len(m.page.Items) {
		return model.FeedItem{}, false
	}
	return m.page.Items[m.cursor], true
}

// View renders the feed view.
func (m Model) View() string {
	if m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.TitleStyle.Render("Filter feed") + "\n" + m.form.View(),
		)
	}

	header := m.renderFilterLine()

	if m.page == nil {
		body := "Loading feed..."
		if m.err != nil {
			body = ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("Press r to retry.")
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, m.centered(body))
	}

	if len(m.page.Items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			m.centered("No postings match.\nPress f to change the filter."))
	}

	listWidth := m.width * 2 / 5
	if listWidth < 30 {
		listWidth = 30
	}
	detailWidth := max(20, m.width-listWidth-2)

	list := m.renderList(listWidth)
	detail := m.renderDetail(detailWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(list),
		"  ",
		detail,
	)

	parts := []string{header}
	if m.err != nil {
		parts = append(parts, ui.ErrorText(m.err))
	}
	parts = append(parts, body, m.renderPager())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderFilterLine() string {
	loc := m.filter.Location
	if loc == "" {
		loc = "anywhere"
	}
	line := "Location: " + loc
	if m.filter.RemoteOnly {
		line += " · remote only"
	}
	if m.loading {
		line += " · loading"
	}
	return theme.DimmedStyle.Render(line)
}

func (m Model) renderList(width int) string {
	var lines []string
	for i, item := range m.page.Items {
		score := "  --"
		if item.FitScore != nil {
			score = theme.FitScoreStyle(*item.FitScore).Render(fmt.Sprintf("%3.0f%%", *item.FitScore*100))
		}
		title := ui.Truncate(item.Title, width-10)
		if m.busy[item.ID] {
			title += theme.NoticeStyle.Render(" ⟳")
		}
		line := score + " " + title
		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(width int) string {
	item, ok := m.selected()
	if !ok {
		return ""
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(item.Title),
	}
	meta := []string{}
	if item.Company != "" {
		meta = append(meta, item.Company)
	}
	if item.Location != "" {
		meta = append(meta, item.Location)
	}
	if item.Remote {
		meta = append(meta, "Remote")
	}
	if len(meta) > 0 {
		lines = append(lines, theme.ValueStyle.Render(strings.Join(meta, " · ")))
	}
	if item.URL != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(item.URL))
	}
	if len(item.Tags) > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render(strings.Join(item.Tags, "  ")))
	}
	if factors := renderFactors(item.FitFactors); factors != "" {
		lines = append(lines, "", theme.LabelStyle.Render("Fit factors"), factors)
	}
	if item.WhyFit != "" {
		lines = append(lines, "", theme.LabelStyle.Render("Why it fits"),
			strings.TrimRight(theme.RenderMarkdown(item.WhyFit, width-4), "\n"))
	}
	return theme.DetailPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderFactors lists fit factors in key order.
func renderFactors(factors map[string]any) string {
	if len(factors) == 0 {
		return ""
	}
	names := make([]string, 0, len(factors))
	for k := range factors {
		names = append(names, k)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, k := range names {
		lines = append(lines, fmt.Sprintf("  %s: %v", strings.ReplaceAll(k, "_", " "), factors[k]))
	}
	return theme.DimmedStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderPager() string {
	p := m.page
	pages := 1
	if p.Limit > 0 && p.Total > 0 {
		pages = (p.Total + p.Limit - 1) / p.Limit
	}
	hints := []string{fmt.Sprintf("Page %d of %d · %d postings", p.Page, pages, p.Total)}
	if p.Page > 1 {
		hints = append(hints, "p prev")
	}
	if p.HasNext() {
		hints = append(hints, "n next")
	}
	return theme.HelpStyle.Render(strings.Join(hints, " · "))
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(max(1, m.height-2)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

func (m *Model) load(filter model.FeedFilter) tea.Cmd {
	m.loading = true
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		page, err := query.Fetch(context.Background(), env.Cache, query.FeedKey(opts.Identity, filter),
			func(ctx context.Context) (*model.FeedPage, error) {
				return env.Client.ListFeed(ctx, filter, opts)
			},
		)
		return feedLoadedMsg{filter: filter, page: page, err: err}
	}
}

func (m Model) track(item model.FeedItem) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		_, err := env.Client.TrackJob(context.Background(), item.ID, opts)
		return trackedMsg{jobID: item.ID, title: item.Title, err: err}
	}
}

func (m Model) hide(item model.FeedItem) tea.Cmd {
	env := m.env
	opts := env.Options()
	return func() tea.Msg {
		err := env.Client.HideJob(context.Background(), item.ID, opts)
		return hiddenMsg{jobID: item.ID, err: err}
	}
}

// SetSize updates the feed view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
