package db

import (
	"context"
	"fmt"
)

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

CREATE TABLE IF NOT EXISTS threshold_rules (
	id            BIGINT PRIMARY KEY,
	trial_id      TEXT NOT NULL,
	metric_name   TEXT NOT NULL,
	low           DOUBLE PRECISION NOT NULL,
	medium        DOUBLE PRECISION NOT NULL,
	high          DOUBLE PRECISION NOT NULL,
	critical      DOUBLE PRECISION NOT NULL,
	enabled       BOOLEAN NOT NULL DEFAULT TRUE,
	direction     TEXT NOT NULL DEFAULT 'upper',
	reference     DOUBLE PRECISION,
	assigned_role TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (trial_id, metric_name)
);

CREATE TABLE IF NOT EXISTS records (
	id          BIGINT PRIMARY KEY,
	trial_id    TEXT NOT NULL,
	domain      TEXT NOT NULL,
	source      TEXT NOT NULL,
	record_id   TEXT NOT NULL,
	data        JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (trial_id, domain, source, record_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id              BIGINT PRIMARY KEY,
	task_code       TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	priority        TEXT NOT NULL,
	status          TEXT NOT NULL,
	trial_id        TEXT NOT NULL,
	site_id         TEXT,
	detection_id    TEXT,
	assigned_to     TEXT,
	assigned_role   TEXT,
	domain          TEXT,
	record_id       TEXT,
	source          TEXT,
	metric_name     TEXT,
	dedup_key       TEXT,
	due_date        TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_comment_at TIMESTAMPTZ,
	last_comment_by TEXT
);

-- At most one open task per detected condition.
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_open_dedup_key ON tasks (dedup_key)
	WHERE dedup_key IS NOT NULL AND status NOT IN ('completed', 'closed');
CREATE INDEX IF NOT EXISTS idx_tasks_open_assigned_role ON tasks (assigned_role)
	WHERE status NOT IN ('completed', 'closed');
CREATE INDEX IF NOT EXISTS idx_tasks_trial_id ON tasks (trial_id);

CREATE TABLE IF NOT EXISTS task_comments (
	id          BIGINT PRIMARY KEY,
	task_id     BIGINT NOT NULL REFERENCES tasks (id),
	comment     TEXT NOT NULL,
	created_by  TEXT NOT NULL,
	role        TEXT,
	attachments TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_task_comments_task_id ON task_comments (task_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id                  BIGINT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	type                TEXT NOT NULL,
	priority            TEXT NOT NULL,
	trial_id            TEXT,
	related_entity_type TEXT NOT NULL,
	related_entity_id   TEXT NOT NULL,
	target_roles        TEXT[] NOT NULL DEFAULT '{}',
	target_users        TEXT[] NOT NULL DEFAULT '{}',
	read                BOOLEAN NOT NULL DEFAULT FALSE,
	action_required     BOOLEAN NOT NULL DEFAULT FALSE,
	action_url          TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_at             TIMESTAMPTZ,
	UNIQUE (related_entity_type, related_entity_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notification_read_status (
	notification_id BIGINT NOT NULL REFERENCES notifications (id),
	user_id         TEXT NOT NULL,
	read_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (notification_id, user_id)
);

CREATE TABLE IF NOT EXISTS role_members (
	role         TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (role, user_id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// Migrate applies every migration newer than the recorded schema version.
func (db *DB) Migrate(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'schema_version')",
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	currentVersion := 0
	if exists {
		if err := db.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := db.pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}
