package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is the ordered schema history. Each entry runs at most once;
// applied versions are tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('admin', 'lecturer', 'student')),
		department    TEXT,
		phone         TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE resources (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('room', 'lab', 'equipment', 'vehicle')),
		location    TEXT NOT NULL,
		capacity    INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL CHECK (status IN ('available', 'booked', 'maintenance', 'unavailable')),
		description TEXT,
		features    TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE booking_groups (
		id                   TEXT PRIMARY KEY,
		requester_id         TEXT NOT NULL REFERENCES users(id),
		resource_id          TEXT NOT NULL REFERENCES resources(id),
		purpose              TEXT NOT NULL,
		kind                 TEXT NOT NULL CHECK (kind IN ('single', 'recurring')),
		recurrence_frequency TEXT,
		recurrence_until     TEXT,
		created_at           TEXT NOT NULL
	)`,
	`CREATE TABLE occurrences (
		id           TEXT PRIMARY KEY,
		group_id     TEXT NOT NULL REFERENCES booking_groups(id) ON DELETE CASCADE,
		resource_id  TEXT NOT NULL REFERENCES resources(id),
		requester_id TEXT NOT NULL REFERENCES users(id),
		start_at     TEXT NOT NULL,
		end_at       TEXT NOT NULL,
		status       TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX idx_occurrences_resource_start ON occurrences(resource_id, start_at)`,
	`CREATE INDEX idx_occurrences_group ON occurrences(group_id)`,
	`CREATE TABLE notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		type       TEXT NOT NULL CHECK (type IN ('booking', 'approval', 'reminder', 'system')),
		read       INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE audit_log (
		id         TEXT PRIMARY KEY,
		actor_id   TEXT NOT NULL,
		action     TEXT NOT NULL,
		entity     TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
}

// Migrate brings the schema up to date. Safe to call on every startup.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := cp.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`, version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
	}
	return nil
}
