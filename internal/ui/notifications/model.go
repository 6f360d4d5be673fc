package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/theme"
	"github.com/nhle/vanta/internal/ui"
)

// loadedMsg carries the notification list, either from the API or from
// the offline snapshot.
type loadedMsg struct {
	user     string
	items    []model.Notification
	snapshot bool
	err      error
}

// markedMsg reports the result of a mark read request. An empty id means
// every notification. prev is the list as it was before the optimistic
// update.
type markedMsg struct {
	user string
	id   string
	at   time.Time
	prev []model.Notification
	err  error
}

// Model is the notification inbox.
type Model struct {
	env    *ui.Env
	items  []model.Notification
	cursor int

	loaded  bool
	stale   bool
	loading bool
	err     error

	now    func() time.Time
	width  int
	height int
}

// New creates a new notifications view model.
func New(env *ui.Env, width, height int) Model {
	return Model{
		env:    env,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Init shows the stored snapshot and fetches the live list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshot(), m.load())
}

// Capturing reports whether the view is consuming text input.
func (m Model) Capturing() bool { return false }

// Unread returns the number of unread notifications shown.
func (m Model) Unread() int {
	return model.CountUnread(m.items)
}

// ApplySync replaces the list with a background poll result.
func (m *Model) ApplySync(user string, items []model.Notification) {
	if user != m.env.UserID() {
		return
	}
	m.items = items
	m.loaded = true
	m.stale = false
	m.clampCursor()
	m.env.Cache.Set(query.NotificationsKey(user), items)
}

// Reset forgets the current user's notifications.
func (m *Model) Reset() {
	m.items = nil
	m.cursor = 0
	m.loaded = false
	m.stale = false
	m.err = nil
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.user != m.env.UserID() {
			return m, nil
		}
		if msg.snapshot {
			// A live result always wins over the snapshot.
			if msg.err != nil || m.loaded {
				return m, nil
			}
			m.items = msg.items
			m.stale = true
			m.clampCursor()
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.items = msg.items
		m.loaded = true
		m.stale = false
		m.clampCursor()
		return m, m.unread()

	case markedMsg:
		if msg.err != nil {
			m.env.Logger.Warn("marking notification read failed", zap.String("id", msg.id), zap.Error(msg.err))
			m.env.Invalidate(query.Notifications)
			var unread tea.Cmd
			if msg.user == m.env.UserID() {
				m.items = withoutRead(m.items, msg.prev, msg.id)
				unread = m.unread()
			}
			return m, tea.Batch(
				unread,
				ui.Flash("Could not mark read: "+api.UserMessage(msg.err), true),
				m.load(),
			)
		}
		m.env.Invalidate(query.Notifications)
		return m, m.recordRead(msg)

	case tea.KeyMsg:
		k := m.env.Keys
		switch {
		case key.Matches(msg, k.Back):
			return m, ui.Back
		case key.Matches(msg, k.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, k.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, k.Refresh):
			m.env.Invalidate(query.Notifications)
			m.loading = true
			return m, m.load()
		case key.Matches(msg, k.MarkRead), key.Matches(msg, k.Select):
			return m.markSelected()
		case key.Matches(msg, k.MarkAllRead):
			return m.markAll()
		}
	}
	return m, nil
}

// markSelected marks the notification under the cursor as read, updating
// the list before the request completes.
func (m Model) markSelected() (Model, tea.Cmd) {
	if m.cursor >= len(m.items) || m.items[m.cursor].Read() {
		return m, nil
	}
	at := m.now()
	id := m.items[m.cursor].ID
	prev := m.items
	m.items = withRead(m.items, func(n model.Notification) bool { return n.ID == id }, at)

	env := m.env
	opts := env.Options()
	return m, tea.Batch(m.unread(), func() tea.Msg {
		err := env.Client.MarkNotificationRead(context.Background(), id, opts)
		return markedMsg{user: opts.Identity, id: id, at: at, prev: prev, err: err}
	})
}

func (m Model) markAll() (Model, tea.Cmd) {
	if m.Unread() == 0 {
		return m, nil
	}
	at := m.now()
	prev := m.items
	m.items = withRead(m.items, func(model.Notification) bool { return true }, at)

	env := m.env
	opts := env.Options()
	return m, tea.Batch(m.unread(), func() tea.Msg {
		err := env.Client.MarkAllNotificationsRead(context.Background(), opts)
		return markedMsg{user: opts.Identity, at: at, prev: prev, err: err}
	})
}

// withRead returns a copy of items with matching unread entries marked
// read at the given time.
func withRead(items []model.Notification, match func(model.Notification) bool, at time.Time) []model.Notification {
	out := make([]model.Notification, len(items))
	copy(out, items)
	for i := range out {
		if !out[i].Read() && match(out[i]) {
			out[i].ReadAt = &model.Timestamp{Time: at}
		}
	}
	return out
}

// withoutRead undoes an optimistic withRead: entries that were unread in
// prev and match id (or every entry for an empty id) are unread again.
func withoutRead(items, prev []model.Notification, id string) []model.Notification {
	wasUnread := make(map[string]bool, len(prev))
	for _, n := range prev {
		if !n.Read() && (id == "" || n.ID == id) {
			wasUnread[n.ID] = true
		}
	}
	out := make([]model.Notification, len(items))
	copy(out, items)
	for i := range out {
		if wasUnread[out[i].ID] {
			out[i].ReadAt = nil
		}
	}
	return out
}

// recordRead mirrors a confirmed read into the offline snapshot.
func (m Model) recordRead(msg markedMsg) tea.Cmd {
	s := m.env.Store
	logger := m.env.Logger
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if msg.id == "" {
			err = s.MarkAllNotificationsRead(ctx, msg.user, msg.at)
		} else {
			err = s.MarkNotificationRead(ctx, msg.user, msg.id, msg.at)
		}
		if err != nil {
			logger.Warn("updating snapshot failed", zap.Error(err))
		}
		return nil
	}
}

func (m Model) unread() tea.Cmd {
	n := m.Unread()
	return func() tea.Msg { return ui.UnreadCountMsg{Count: n} }
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

// View renders the notifications view.
func (m Model) View() string {
	if len(m.items) == 0 {
		switch {
		case m.err != nil:
			return m.centered(ui.ErrorText(m.err) + "\n\n" + theme.HelpStyle.Render("Press r to retry."))
		case !m.loaded:
			return m.centered("Loading notifications...")
		default:
			return m.centered("You're all caught up.")
		}
	}

	listWidth := m.width / 2
	if listWidth < 36 {
		listWidth = 36
	}
	detailWidth := max(20, m.width-listWidth-2)

	var header []string
	summary := fmt.Sprintf("%d unread of %d", m.Unread(), len(m.items))
	if m.stale {
		summary += " · offline snapshot"
	}
	header = append(header, theme.DimmedStyle.Render(summary))
	if m.err != nil {
		header = append(header, ui.ErrorText(m.err))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(m.renderList(listWidth)),
		"  ",
		m.renderDetail(detailWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left, append(header, body)...)
}

func (m Model) renderList(width int) string {
	lines := make([]string, 0, len(m.items))
	for i, n := range m.items {
		dot := " "
		if !n.Read() {
			dot = theme.UnreadDot
		}
		when := theme.DimmedStyle.Render(ui.RelativeTime(n.CreatedAt.Time))
		title := ui.Truncate(n.Title(), width-lipgloss.Width(when)-6)
		if n.Read() {
			title = theme.DimmedStyle.Render(title)
		}
		line := fmt.Sprintf("%s %s  %s", dot, title, when)
		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail(width int) string {
	if m.cursor >= len(m.items) {
		return ""
	}
	n := m.items[m.cursor]

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(n.Title()),
		theme.DimmedStyle.Render(n.CreatedAt.Format("Mon Jan 2 15:04") + " · " + ui.RelativeTime(n.CreatedAt.Time)),
	}
	if n.Read() {
		lines = append(lines, theme.DimmedStyle.Render("Read "+ui.RelativeTime(n.ReadAt.Time)))
	}
	if n.Kind == model.KindDailyDigest {
		lines = append(lines, theme.NoticeStyle.Render("Press 5 to open the digest."))
	}
	if payload := FormatPayload(n.Payload); payload != "" {
		lines = append(lines, "", theme.LabelStyle.Render("Details"), payload)
	}
	return theme.DetailPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// FormatPayload pretty-prints a JSON payload. Payloads that are not JSON
// are returned as-is; empty ones render as "".
func FormatPayload(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func (m Model) centered(s string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(s)
}

func (m Model) loadSnapshot() tea.Cmd {
	s := m.env.Store
	user := m.env.UserID()
	return func() tea.Msg {
		items, err := s.GetNotifications(context.Background(), user)
		return loadedMsg{user: user, items: items, snapshot: true, err: err}
	}
}

func (m Model) load() tea.Cmd {
	env := m.env
	opts := env.Options()
	user := opts.Identity
	return func() tea.Msg {
		items, err := query.Fetch(context.Background(), env.Cache, query.NotificationsKey(user),
			func(ctx context.Context) ([]model.Notification, error) {
				return env.Client.ListNotifications(ctx, opts)
			},
		)
		if err == nil {
			if _, serr := env.Store.ReplaceNotifications(context.Background(), user, items); serr != nil {
				env.Logger.Warn("saving notification snapshot failed", zap.Error(serr))
			}
		}
		return loadedMsg{user: user, items: items, err: err}
	}
}

// SetSize updates the notifications view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
