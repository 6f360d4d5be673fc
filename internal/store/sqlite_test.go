package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/store"
	"github.com/nhle/vanta/tests/testutil"
)

func ts(s string) model.Timestamp {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return model.Timestamp{Time: t}
}

func TestApplicationsRoundTripInOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	apps := []model.Application{
		{ID: "b", Title: "Backend", Company: "Acme", Stage: model.StageApplied},
		{ID: "a", Title: "Analyst", Company: "Initech", Stage: model.StageProspect},
		{ID: "c", Title: "Chef", Company: "Diner", Stage: model.StageOffer},
	}
	require.NoError(t, s.ReplaceApplications(ctx, "u1", apps))

	got, err := s.GetApplications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, model.StageOffer, got[2].Stage)

	require.NoError(t, s.ReplaceApplications(ctx, "u1", apps[:1]))
	got, err = s.GetApplications(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	other, err := s.GetApplications(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReplaceNotificationsReportsAdded(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := []model.Notification{
		{ID: "n1", Kind: "new_match", Payload: json.RawMessage(`{"title":"SE"}`), CreatedAt: ts("2024-01-01T10:00:00Z")},
	}
	added, err := s.ReplaceNotifications(ctx, "u1", first)
	require.NoError(t, err)
	assert.Empty(t, added, "first sync reports nothing as new")

	second := append(first, model.Notification{
		ID: "n2", Kind: "digest_ready", CreatedAt: ts("2024-01-02T10:00:00Z"),
	})
	added, err = s.ReplaceNotifications(ctx, "u1", second)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "n2", added[0].ID)

	got, err := s.GetNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[0].ID, "newest first")
	assert.JSONEq(t, `{"title":"SE"}`, string(got[1].Payload))
}

func TestMarkNotificationsRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	read := ts("2024-01-01T12:00:00Z")
	_, err := s.ReplaceNotifications(ctx, "u1", []model.Notification{
		{ID: "n1", Kind: "a", CreatedAt: ts("2024-01-01T10:00:00Z")},
		{ID: "n2", Kind: "b", CreatedAt: ts("2024-01-01T11:00:00Z")},
		{ID: "n3", Kind: "c", CreatedAt: ts("2024-01-01T09:00:00Z"), ReadAt: &read},
	})
	require.NoError(t, err)

	count, err := s.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	at := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkNotificationRead(ctx, "u1", "n1", at))
	count, err = s.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.MarkAllNotificationsRead(ctx, "u1", at))
	count, err = s.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := s.GetNotifications(ctx, "u1")
	require.NoError(t, err)
	for _, n := range got {
		require.NotNil(t, n.ReadAt, n.ID)
	}
	// Already-read notifications keep their original read time.
	assert.True(t, got[2].ReadAt.Equal(read.Time))
}

func TestLastSyncedAndPurge(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastSynced(ctx, "u1", store.ResourceApplications)
	require.NoError(t, err)
	assert.False(t, ok)

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.ReplaceApplications(ctx, "u1", []model.Application{{ID: "a", Stage: model.StageApplied}}))

	at, ok, err := s.LastSynced(ctx, "u1", store.ResourceApplications)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.After(before))

	require.NoError(t, s.Purge(ctx, "u1"))
	apps, err := s.GetApplications(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, apps)

	_, ok, err = s.LastSynced(ctx, "u1", store.ResourceApplications)
	require.NoError(t, err)
	assert.False(t, ok)
}
