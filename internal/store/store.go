// Package store keeps an offline snapshot of the last fetched board and
// notifications so the terminal has something to show before the first
// request returns. It is never a source of truth: every fetch replaces the
// snapshot wholesale.
package store

import (
	"context"
	"time"

	"github.com/nhle/vanta/internal/model"
)

// Resource names recorded in sync_state.
const (
	ResourceApplications  = "applications"
	ResourceNotifications = "notifications"
)

// Store defines the snapshot persistence interface. Every method is scoped
// to one user id.
type Store interface {
	// === Applications ===

	ReplaceApplications(ctx context.Context, userID string, apps []model.Application) error
	GetApplications(ctx context.Context, userID string) ([]model.Application, error)

	// === Notifications ===

	// ReplaceNotifications stores ns and returns the ones not seen in the
	// previous snapshot.
	ReplaceNotifications(ctx context.Context, userID string, ns []model.Notification) ([]model.Notification, error)
	GetNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error
	UnreadCount(ctx context.Context, userID string) (int, error)

	// === Sync bookkeeping ===

	LastSynced(ctx context.Context, userID, resource string) (time.Time, bool, error)
	Purge(ctx context.Context, userID string) error

	Close() error
}
