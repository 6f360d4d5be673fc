package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/ui"
	"github.com/nhle/vanta/tests/testutil"
)

type inboxAPI struct {
	mu       gosync.Mutex
	posts    []string
	fail     bool
	failList bool
}

func (a *inboxAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r.Method == http.MethodPost {
		a.posts = append(a.posts, r.URL.Path)
		if a.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if a.failList {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode([]model.Notification{})
}

func inbox(t *testing.T, api *inboxAPI) (Model, *ui.Env) {
	t.Helper()
	env := testutil.NewTestEnv(t, api)
	items := []model.Notification{
		{ID: "n1", Kind: model.KindDailyDigest},
		{ID: "n2", Kind: model.KindResumeTailored},
	}
	testutil.SeedNotifications(t, env.Store, items...)

	m := New(env, 100, 30)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m, _ = m.Update(loadedMsg{user: testutil.TestUser.UserID, items: items})
	return m, env
}

func TestMarkReadUpdatesListBeforeServerAnswers(t *testing.T) {
	api := &inboxAPI{}
	m, env := inbox(t, api)
	require.Equal(t, 2, m.Unread())

	m, cmd := m.Update(testutil.Key("m"))
	assert.Equal(t, 1, m.Unread())
	assert.True(t, m.items[0].Read())

	var marked *markedMsg
	for _, msg := range testutil.Run(cmd) {
		switch msg := msg.(type) {
		case ui.UnreadCountMsg:
			assert.Equal(t, 1, msg.Count)
		case markedMsg:
			marked = &msg
		}
	}
	require.NotNil(t, marked)
	require.NoError(t, marked.err)
	assert.Equal(t, []string{"/notifications/n1/read"}, api.posts)

	m, cmd = m.Update(*marked)
	testutil.Run(cmd)

	n, err := env.Store.UnreadCount(context.Background(), testutil.TestUser.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the confirmed read reaches the snapshot")

	_, cmd = m.Update(testutil.Key("m"))
	assert.Nil(t, cmd, "an already read notification is left alone")
}

func TestMarkAllFailureReloads(t *testing.T) {
	api := &inboxAPI{fail: true}
	m, _ := inbox(t, api)

	m, cmd := m.Update(testutil.Key("M"))
	assert.Zero(t, m.Unread())

	var marked *markedMsg
	for _, msg := range testutil.Run(cmd) {
		if mm, ok := msg.(markedMsg); ok {
			marked = &mm
		}
	}
	require.NotNil(t, marked)
	require.Error(t, marked.err)
	assert.Equal(t, []string{"/notifications/read-all"}, api.posts)

	_, cmd = m.Update(*marked)
	var flashed bool
	for _, msg := range testutil.Run(cmd) {
		if f, ok := msg.(ui.FlashMsg); ok {
			flashed = true
			assert.True(t, f.Error)
			assert.Contains(t, f.Text, "Could not mark read")
		}
	}
	assert.True(t, flashed)
}

func TestMarkFailureRestoresUnreadWhenReloadFails(t *testing.T) {
	api := &inboxAPI{fail: true, failList: true}
	m, _ := inbox(t, api)

	m, cmd := m.Update(testutil.Key("m"))
	require.True(t, m.items[0].Read())

	var marked *markedMsg
	for _, msg := range testutil.Run(cmd) {
		if mm, ok := msg.(markedMsg); ok {
			marked = &mm
		}
	}
	require.NotNil(t, marked)
	require.Error(t, marked.err)

	m, cmd = m.Update(*marked)
	assert.False(t, m.items[0].Read(), "n1 is unread again")
	assert.Equal(t, 2, m.Unread())

	var reload *loadedMsg
	var count *ui.UnreadCountMsg
	for _, msg := range testutil.Run(cmd) {
		switch msg := msg.(type) {
		case loadedMsg:
			reload = &msg
		case ui.UnreadCountMsg:
			count = &msg
		}
	}
	require.NotNil(t, count)
	assert.Equal(t, 2, count.Count)
	require.NotNil(t, reload)
	require.Error(t, reload.err)

	m, _ = m.Update(*reload)
	require.Len(t, m.items, 2)
	assert.False(t, m.items[0].Read())
	assert.False(t, m.items[1].Read())
}

func TestMarkAllFailureOnlyRestoresItsOwnEntries(t *testing.T) {
	prev := []model.Notification{
		{ID: "n1"},
		{ID: "n2", ReadAt: &model.Timestamp{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	marked := withRead(prev, func(model.Notification) bool { return true }, at)
	require.Zero(t, model.CountUnread(marked))

	got := withoutRead(marked, prev, "")
	assert.False(t, got[0].Read())
	assert.True(t, got[1].Read(), "an entry read before the request stays read")
	assert.True(t, marked[0].Read(), "the input is not modified")
}

func TestApplySyncIgnoresOtherUsers(t *testing.T) {
	m, _ := inbox(t, &inboxAPI{})

	m.ApplySync("someone-else", nil)
	assert.Len(t, m.items, 2)

	m.ApplySync(testutil.TestUser.UserID, []model.Notification{{ID: "n9", Kind: "x"}})
	require.Len(t, m.items, 1)
	assert.Equal(t, "n9", m.items[0].ID)

	m.Reset()
	assert.Empty(t, m.items)
}

func TestFormatPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"null", "null", ""},
		{"object", `{"a":1}`, "{\n  \"a\": 1\n}"},
		{"invalid", `{oops`, "{oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPayload(json.RawMessage(tt.raw)))
		})
	}
}
