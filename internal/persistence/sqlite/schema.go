package sqlite

import (
	"context"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
	display_name  TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT 'EMAIL',
	provider_id   TEXT,
	password_hash TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calendars (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '#4f46e5',
	created_by TEXT NOT NULL REFERENCES users(id),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calendar_members (
	calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role        TEXT NOT NULL,
	PRIMARY KEY (calendar_id, user_id)
);

CREATE TABLE IF NOT EXISTS calendar_invites (
	id            TEXT PRIMARY KEY,
	calendar_id   TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
	invitee_email TEXT NOT NULL,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'PENDING',
	token         TEXT NOT NULL UNIQUE,
	invited_by    TEXT NOT NULL REFERENCES users(id),
	created_at    TEXT NOT NULL,
	expires_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	start_at    TEXT NOT NULL,
	end_at      TEXT NOT NULL,
	all_day     INTEGER NOT NULL DEFAULT 0,
	note        TEXT,
	created_by  TEXT NOT NULL,
	updated_by  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	deleted_at  TEXT
);

CREATE TABLE IF NOT EXISTS event_reminders (
	event_id       TEXT PRIMARY KEY REFERENCES events(id) ON DELETE CASCADE,
	minutes_before INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_calendar_window ON events(calendar_id, start_at);
CREATE INDEX IF NOT EXISTS idx_invites_calendar ON calendar_invites(calendar_id, status);
`

// Migrate applies the schema. Statements are idempotent so repeated calls are
// safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
