package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/keys"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/session"
	"github.com/nhle/vanta/internal/store"
	"github.com/nhle/vanta/internal/theme"
)

// Env bundles what every view needs to talk to the API. Views hold a
// pointer to one shared Env.
type Env struct {
	Client  *api.Client
	Cache   *query.Cache
	Session *session.Manager
	Store   store.Store
	Keys    *keys.KeyMap
	Logger  *zap.Logger
}

// UserID returns the signed-in user id, or "".
func (e *Env) UserID() string {
	return e.Session.Current().UserID
}

// Options returns request options carrying the caller identity.
func (e *Env) Options() api.RequestOptions {
	return e.Session.Options()
}

// Invalidate drops cached reads under root for the current user, or every
// user when no session is active.
func (e *Env) Invalidate(root string) {
	if user := e.UserID(); user != "" {
		e.Cache.Invalidate(root, user)
		return
	}
	e.Cache.Invalidate(root)
}

// BackMsg asks the root to return to the home view.
type BackMsg struct{}

// Back is a tea.Cmd emitting BackMsg.
func Back() tea.Msg { return BackMsg{} }

// FlashMsg shows a transient message in the status bar.
type FlashMsg struct {
	Text  string
	Error bool
}

// Flash returns a command emitting a FlashMsg.
func Flash(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return FlashMsg{Text: text, Error: isErr} }
}

// ApplicationsChangedMsg tells the board that the applications list
// changed elsewhere and should be refetched.
type ApplicationsChangedMsg struct{}

// ApplicationsChanged is a tea.Cmd emitting ApplicationsChangedMsg.
func ApplicationsChanged() tea.Msg { return ApplicationsChangedMsg{} }

// RelativeTime renders t as "3 minutes ago".
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// ErrorText renders err as inline error text, or "" when err is nil.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return theme.ErrorStyle.Render(api.UserMessage(err))
}

// FormWidth clamps a huh form width to a readable range.
func FormWidth(width int) int {
	w := width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// FormHeight leaves room for a title above the form.
func FormHeight(height int) int {
	h := height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// Truncate shortens s to width runes, adding an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// UnreadCountMsg updates the unread badge in the header.
type UnreadCountMsg struct {
	Count int
}

// FormKeyMap is the huh key map used by every form: esc aborts the form
// as well as ctrl+c.
func FormKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	)
	return km
}
