package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/vanta/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

type applicationRow struct {
	ID       string `db:"id"`
	Position int    `db:"position"`
	Stage    string `db:"stage"`
	Data     string `db:"data"`
}

type notificationRow struct {
	ID        string         `db:"id"`
	Kind      string         `db:"kind"`
	Payload   string         `db:"payload"`
	ReadAt    sql.NullString `db:"read_at"`
	CreatedAt string         `db:"created_at"`
}

// ReplaceApplications swaps the stored board source list for apps,
// keeping their order.
func (s *SQLiteStore) ReplaceApplications(
	ctx context.Context,
	userID string,
	apps []model.Application,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM applications WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing applications: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO applications (user_id, id, position, stage, data)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, app := range apps {
		data, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("marshaling application %s: %w", app.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, userID, app.ID, i, string(app.Stage), string(data)); err != nil {
			return fmt.Errorf("inserting application %s: %w", app.ID, err)
		}
	}

	if err := touch(ctx, tx, userID, ResourceApplications); err != nil {
		return err
	}
	return tx.Commit()
}

// GetApplications returns the stored applications in fetch order.
func (s *SQLiteStore) GetApplications(ctx context.Context, userID string) ([]model.Application, error) {
	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, position, stage, data FROM applications WHERE user_id = ? ORDER BY position",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}

	apps := make([]model.Application, 0, len(rows))
	for _, r := range rows {
		var app model.Application
		if err := json.Unmarshal([]byte(r.Data), &app); err != nil {
			return nil, fmt.Errorf("unmarshaling application %s: %w", r.ID, err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// ReplaceNotifications stores ns and returns those whose ids were not in
// the previous snapshot. The first snapshot for a user reports nothing as
// new.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	userID string,
	ns []model.Notification,
) ([]model.Notification, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var known []string
	if err := tx.SelectContext(ctx, &known, "SELECT id FROM notifications WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("querying known notifications: %w", err)
	}
	var synced int
	if err := tx.GetContext(ctx, &synced,
		"SELECT COUNT(*) FROM sync_state WHERE user_id = ? AND resource = ?",
		userID, ResourceNotifications,
	); err != nil {
		return nil, fmt.Errorf("reading sync state: %w", err)
	}

	seen := make(map[string]bool, len(known))
	for _, id := range known {
		seen[id] = true
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("clearing notifications: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO notifications (user_id, id, kind, payload, read_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	var added []model.Notification
	for _, n := range ns {
		_, err := stmt.ExecContext(ctx,
			userID, n.ID, n.Kind, string(n.Payload),
			formatOptional(n.ReadAt), formatTime(n.CreatedAt.Time),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
		if synced > 0 && !seen[n.ID] {
			added = append(added, n)
		}
	}

	if err := touch(ctx, tx, userID, ResourceNotifications); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing notifications: %w", err)
	}
	return added, nil
}

// GetNotifications returns stored notifications, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, kind, payload, read_at, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = ? WHERE user_id = ? AND id = ? AND read_at IS NULL",
		formatTime(at), userID, id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL",
		formatTime(at), userID,
	)
	if err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (s *SQLiteStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL",
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// LastSynced returns when a resource was last stored for the user.
func (s *SQLiteStore) LastSynced(ctx context.Context, userID, resource string) (time.Time, bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw,
		"SELECT synced_at FROM sync_state WHERE user_id = ? AND resource = ?",
		userID, resource,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading sync state: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing sync time %q: %w", raw, err)
	}
	return t, true, nil
}

// Purge deletes everything stored for the user.
func (s *SQLiteStore) Purge(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"applications", "notifications", "sync_state"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("purging %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func touch(ctx context.Context, tx *sqlx.Tx, userID, resource string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_state (user_id, resource, synced_at)
		VALUES (?, ?, ?)`,
		userID, resource, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording sync of %s: %w", resource, err)
	}
	return nil
}

func (r notificationRow) toModel() (model.Notification, error) {
	n := model.Notification{ID: r.ID, Kind: r.Kind}
	if r.Payload != "" {
		n.Payload = json.RawMessage(r.Payload)
	}
	created, err := model.ParseTimestamp(r.CreatedAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification %s: %w", r.ID, err)
	}
	n.CreatedAt = created
	if r.ReadAt.Valid {
		readAt, err := model.ParseTimestamp(r.ReadAt.String)
		if err != nil {
			return model.Notification{}, fmt.Errorf("scanning notification %s: %w", r.ID, err)
		}
		n.ReadAt = &readAt
	}
	return n, nil
}

// timeLayout has fixed-width fractions so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// formatOptional renders a nullable timestamp for storage.
func formatOptional(ts *model.Timestamp) any {
	if ts == nil {
		return nil
	}
	return formatTime(ts.Time)
}
