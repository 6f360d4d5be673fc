package testutil

import (
	"context"
	"testing"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/store"
)

// NewTestStore opens an in-memory snapshot store and closes it when the
// test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening snapshot store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing snapshot store: %v", err)
		}
	})
	return s
}

// SeedNotifications stores ns as TestUser's offline inbox snapshot.
func SeedNotifications(t *testing.T, s store.Store, ns ...model.Notification) {
	t.Helper()

	if _, err := s.ReplaceNotifications(context.Background(), TestUser.UserID, ns); err != nil {
		t.Fatalf("seeding notifications: %v", err)
	}
}

// SeedApplications stores apps as TestUser's offline board snapshot.
func SeedApplications(t *testing.T, s store.Store, apps ...model.Application) {
	t.Helper()

	if err := s.ReplaceApplications(context.Background(), TestUser.UserID, apps); err != nil {
		t.Fatalf("seeding applications: %v", err)
	}
}
