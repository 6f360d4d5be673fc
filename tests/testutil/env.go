package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/credential"
	"github.com/nhle/vanta/internal/keys"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/query"
	"github.com/nhle/vanta/internal/session"
	"github.com/nhle/vanta/internal/ui"
)

// TestUser is the identity NewTestEnv signs in as.
var TestUser = model.Session{UserID: "u-test", Email: "ada@example.com"}

// NewTestEnv builds a view environment against an httptest server running
// handler, with TestUser signed in and an in-memory snapshot store. Reads
// are not retried.
func NewTestEnv(t *testing.T, handler http.Handler) *ui.Env {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := api.NewClient(srv.URL, api.WithLogger(logger))

	creds := credential.NewStore(keyring.NewArrayKeyring(nil))
	if err := creds.SaveSession(TestUser); err != nil {
		t.Fatalf("saving test session: %v", err)
	}
	sess := session.NewManager(creds, client, logger)
	if _, err := sess.Restore(); err != nil {
		t.Fatalf("restoring test session: %v", err)
	}

	return &ui.Env{
		Client:  client,
		Cache:   query.New(query.Options{}, logger),
		Session: sess,
		Store:   NewTestStore(t),
		Keys:    keys.DefaultKeyMap(),
		Logger:  logger,
	}
}

// NewSignedOutEnv is NewTestEnv without a session.
func NewSignedOutEnv(t *testing.T, handler http.Handler) *ui.Env {
	t.Helper()

	env := NewTestEnv(t, handler)
	if err := env.Session.SignOut(); err != nil {
		t.Fatalf("signing out: %v", err)
	}
	return env
}

// Key builds a key press message for view tests.
func Key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ", "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Run executes cmd and returns the messages it produces, flattening
// batches. Commands that sleep, such as ticks, must not be passed in.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}
