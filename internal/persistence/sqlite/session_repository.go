package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/channasilva/crms-server/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a SQLite-backed session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession inserts a new session and returns the stored record.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.UTC().Format(timeLayout),
		session.CreatedAt.UTC().Format(timeLayout),
		session.UpdatedAt.UTC().Format(timeLayout),
		nullTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return r.GetSession(ctx, session.Token)
}

// GetSession retrieves a session by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := r.pool.db.QueryRowContext(ctx, sessionSelect+` WHERE token = ?`, token)
	return scanSession(row)
}

// RevokeSession stamps the session revoked and returns the updated record.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ? AND revoked_at IS NULL`,
		revokedAt.UTC().Format(timeLayout),
		revokedAt.UTC().Format(timeLayout),
		token,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if err := requireAffected(result); err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`,
		reference.UTC().Format(timeLayout))
	return mapError(err)
}

const sessionSelect = `
	SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
	FROM sessions`

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session                   persistence.Session
		expires, created, updated string
		revoked                   sql.NullString
	)
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expires, &created, &updated, &revoked)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if session.ExpiresAt, err = parseTime(expires); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Session{}, err
	}
	if revoked.Valid {
		parsed, err := parseTime(revoked.String)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &parsed
	}
	return session, nil
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(timeLayout), Valid: true}
}
