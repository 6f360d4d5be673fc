package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	position   INTEGER NOT NULL,
	stage      TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS notifications (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL DEFAULT '',
	read_at    TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS sync_state (
	user_id   TEXT NOT NULL,
	resource  TEXT NOT NULL,
	synced_at TEXT NOT NULL,
	PRIMARY KEY (user_id, resource)
);

CREATE INDEX IF NOT EXISTS idx_applications_position ON applications(user_id, position);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(user_id, created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_unread
	ON notifications(user_id, read_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
