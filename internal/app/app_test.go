package app

import (
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	appsync "github.com/nhle/vanta/internal/sync"
	"github.com/nhle/vanta/internal/ui"
	"github.com/nhle/vanta/internal/ui/command"
	"github.com/nhle/vanta/tests/testutil"
)

func newRoot(t *testing.T, env *ui.Env) Model {
	t.Helper()
	p := appsync.New(env.Client, env.Session, env.Store, time.Hour, nil)
	t.Cleanup(p.Stop)

	m := New(env, p)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestStartsOnSignInWhenSignedOut(t *testing.T) {
	m := newRoot(t, testutil.NewSignedOutEnv(t, http.NotFoundHandler()))
	assert.Equal(t, ViewSignIn, m.currentView)

	m, _ = update(t, m, testutil.Key("3"))
	assert.Equal(t, ViewSignIn, m.currentView, "number keys go to the form while signed out")
	assert.Contains(t, m.View(), "signed out")
}

func TestNumberKeysSwitchViews(t *testing.T) {
	m := newRoot(t, testutil.NewTestEnv(t, http.NotFoundHandler()))
	require.Equal(t, ViewBoard, m.currentView)

	m, cmd := update(t, m, testutil.Key("3"))
	assert.Equal(t, ViewTasks, m.currentView)
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, m.activeTab())

	m, _ = update(t, m, testutil.Key("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Equal(t, 2, m.activeTab(), "help keeps the tab of the view underneath")

	m, _ = update(t, m, testutil.Key("esc"))
	assert.Equal(t, ViewTasks, m.currentView)

	m, _ = update(t, m, ui.BackMsg{})
	assert.Equal(t, ViewBoard, m.currentView)
}

func TestSyncResultUpdatesBadgeAndFlashes(t *testing.T) {
	env := testutil.NewTestEnv(t, http.NotFoundHandler())
	m := newRoot(t, env)

	ns := []model.Notification{
		{ID: "n1", Kind: model.KindDailyDigest},
		{ID: "n2", Kind: model.KindResumeTailored},
	}
	m, cmd := update(t, m, appsync.SyncResultMsg{
		Resource:         appsync.ResourceNotifications,
		UserID:           testutil.TestUser.UserID,
		Notifications:    ns,
		NewNotifications: ns,
		Unread:           2,
	})
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, m.unreadCount)
	assert.Contains(t, m.headerTitle(), "[2 new]")

	m, _ = update(t, m, appsync.SyncResultMsg{
		Resource: appsync.ResourceNotifications,
		UserID:   "someone-else",
		Unread:   9,
	})
	assert.Equal(t, 2, m.unreadCount, "results for another user are dropped")
}

func TestAuthErrorShowsInStatusBar(t *testing.T) {
	m := newRoot(t, testutil.NewTestEnv(t, http.NotFoundHandler()))

	m, _ = update(t, m, appsync.SyncResultMsg{
		Resource:  appsync.ResourceApplications,
		UserID:    testutil.TestUser.UserID,
		Error:     &api.Error{Status: 401},
		AuthError: &appsync.AuthErrorMsg{Message: "Session expired. Press 'L' to sign in again."},
	})
	assert.Contains(t, m.statusLine(), "Session expired")
}

func TestSignOutClearsSession(t *testing.T) {
	env := testutil.NewTestEnv(t, http.NotFoundHandler())
	m := newRoot(t, env)
	m.unreadCount = 4

	m, cmd := update(t, m, testutil.Key("L"))
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewSignIn, m.currentView)
	assert.False(t, env.Session.SignedIn())
	assert.Zero(t, m.unreadCount)
}

func TestFlashExpiresBySequence(t *testing.T) {
	m := newRoot(t, testutil.NewTestEnv(t, http.NotFoundHandler()))

	m, _ = update(t, m, ui.FlashMsg{Text: "first"})
	m, _ = update(t, m, ui.FlashMsg{Text: "second", Error: true})
	m, _ = update(t, m, flashClearMsg{seq: 1})
	assert.Equal(t, "second", m.flash, "a stale timer leaves a newer message")

	m, _ = update(t, m, flashClearMsg{seq: 2})
	assert.Empty(t, m.flash)
}

func TestCommandPalette(t *testing.T) {
	m := newRoot(t, testutil.NewTestEnv(t, http.NotFoundHandler()))

	m, _ = update(t, m, testutil.Key(":"))
	require.Equal(t, ViewCommand, m.currentView)

	m, _ = update(t, m, command.CommandMsg("feed"))
	assert.Equal(t, ViewFeed, m.currentView)

	m, cmd := update(t, m, command.CommandMsg("bogus"))
	require.NotNil(t, cmd)
	flash, ok := cmd().(ui.FlashMsg)
	require.True(t, ok)
	assert.True(t, flash.Error)
	assert.Contains(t, flash.Text, "bogus")
}
