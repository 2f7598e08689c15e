package sqlite

import (
	"context"

	"github.com/channasilva/crms-server/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository on SQLite.
type AuditRepository struct {
	pool *ConnectionPool
}

// NewAuditRepository creates a SQLite-backed audit repository.
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendAudit writes one audit entry.
func (r *AuditRepository) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, entity, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.Entity,
		entry.Detail,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// ListAudit returns the newest entries up to limit.
func (r *AuditRepository) ListAudit(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, actor_id, action, entity, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var (
			entry   persistence.AuditEntry
			created string
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.Entity, &entry.Detail, &created); err != nil {
			return nil, mapError(err)
		}
		if entry.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
