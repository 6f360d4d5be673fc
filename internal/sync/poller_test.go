package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nhle/vanta/internal/api"
	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/tests/testutil"
)

type fakeFetcher struct {
	mu            gosync.Mutex
	apps          []model.Application
	notifications []model.Notification
	err           error
	calls         map[Resource]int
	identities    []string
}

func (f *fakeFetcher) record(r Resource, opts api.RequestOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[Resource]int)
	}
	f.calls[r]++
	f.identities = append(f.identities, opts.Identity)
}

func (f *fakeFetcher) ListApplications(_ context.Context, opts api.RequestOptions) ([]model.Application, error) {
	f.record(ResourceApplications, opts)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apps, f.err
}

func (f *fakeFetcher) ListNotifications(_ context.Context, opts api.RequestOptions) ([]model.Notification, error) {
	f.record(ResourceNotifications, opts)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifications, f.err
}

func (f *fakeFetcher) setNotifications(ns []model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = ns
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type staticIdentity string

func (s staticIdentity) Options() api.RequestOptions {
	return api.RequestOptions{Identity: string(s)}
}

func verifyNoLeaks(t *testing.T) {
	goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

// next runs cmd and fails the test if no message arrives in time.
func next(t *testing.T, cmd tea.Cmd) SyncResultMsg {
	t.Helper()
	require.NotNil(t, cmd)
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		res, ok := msg.(SyncResultMsg)
		require.True(t, ok, "unexpected message %T", msg)
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync result")
		return SyncResultMsg{}
	}
}

// collect waits for one result per resource.
func collect(t *testing.T, p *Poller, first tea.Cmd) map[Resource]SyncResultMsg {
	t.Helper()
	out := make(map[Resource]SyncResultMsg)
	cmd := first
	for len(out) < 2 {
		res := next(t, cmd)
		out[res.Resource] = res
		cmd = p.WaitForNextResult()
	}
	return out
}

func TestPollerSyncsBothResourcesOnStart(t *testing.T) {
	defer verifyNoLeaks(t)

	s := testutil.NewTestStore(t)
	f := &fakeFetcher{
		apps: []model.Application{{ID: "a1", Title: "SE", Stage: model.StageApplied}},
		notifications: []model.Notification{
			{ID: "n1", Kind: model.KindDailyDigest},
			{ID: "n2", Kind: model.KindResumeTailored, ReadAt: &model.Timestamp{Time: time.Now()}},
		},
	}
	p := New(f, staticIdentity("u1"), s, time.Hour, nil)
	defer p.Stop()

	results := collect(t, p, p.Start())

	apps := results[ResourceApplications]
	require.NoError(t, apps.Error)
	assert.Equal(t, "u1", apps.UserID)
	assert.Len(t, apps.Applications, 1)

	ns := results[ResourceNotifications]
	require.NoError(t, ns.Error)
	assert.Equal(t, 1, ns.Unread)
	assert.Empty(t, ns.NewNotifications, "first sync reports nothing as new")

	stored, err := s.GetApplications(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	for _, st := range p.GetStatuses() {
		assert.Equal(t, SyncIdle, st.State, st.Resource)
		assert.False(t, st.LastSync.IsZero())
	}
}

func TestPollerRefreshReportsNewNotifications(t *testing.T) {
	defer verifyNoLeaks(t)

	s := testutil.NewTestStore(t)
	f := &fakeFetcher{notifications: []model.Notification{{ID: "n1", Kind: "a"}}}
	p := New(f, staticIdentity("u1"), s, time.Hour, nil)
	defer p.Stop()

	collect(t, p, p.Start())

	f.setNotifications([]model.Notification{{ID: "n1", Kind: "a"}, {ID: "n2", Kind: "b"}})
	p.Refresh(ResourceNotifications)

	res := next(t, p.WaitForNextResult())
	assert.Equal(t, ResourceNotifications, res.Resource)
	require.Len(t, res.NewNotifications, 1)
	assert.Equal(t, "n2", res.NewNotifications[0].ID)
	assert.Equal(t, 2, res.Unread)
}

func TestPollerReportsExpiredSession(t *testing.T) {
	defer verifyNoLeaks(t)

	s := testutil.NewTestStore(t)
	f := &fakeFetcher{err: &api.Error{Status: 401, Message: "Unauthorized"}}
	p := New(f, staticIdentity("u1"), s, time.Hour, nil)
	defer p.Stop()

	for _, res := range collect(t, p, p.Start()) {
		require.Error(t, res.Error)
		require.NotNil(t, res.AuthError)
		assert.Contains(t, res.AuthError.Message, "Session expired")
	}
	for _, st := range p.GetStatuses() {
		assert.Equal(t, SyncError, st.State)
	}
}

func TestPollerSkipsWhenSignedOut(t *testing.T) {
	defer verifyNoLeaks(t)

	s := testutil.NewTestStore(t)
	f := &fakeFetcher{}
	p := New(f, staticIdentity(""), s, time.Hour, nil)

	cmd := p.Start()
	require.NotNil(t, cmd)
	p.RefreshAll()
	p.Stop()

	assert.Nil(t, cmd(), "closed result channel yields no message")
	assert.Zero(t, f.callCount())
}

func TestStopIsIdempotent(t *testing.T) {
	defer verifyNoLeaks(t)

	p := New(&fakeFetcher{}, staticIdentity(""), testutil.NewTestStore(t), 0, nil)
	assert.Equal(t, DefaultInterval, p.interval)
	p.Stop()
	p.Stop()
	assert.Nil(t, p.Start())
}
