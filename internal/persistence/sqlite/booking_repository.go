package sqlite

import (
	"context"
	"database/sql"

	"github.com/channasilva/crms-server/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository on SQLite.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a SQLite-backed booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateGroup writes a booking group and all its occurrences in one
// transaction, mirroring the all-or-nothing in-memory commit.
func (r *BookingRepository) CreateGroup(ctx context.Context, group persistence.BookingGroup, occurrences []persistence.Occurrence) error {
	if group.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var until sql.NullString
		if group.RecurrenceUntil != nil {
			until = sql.NullString{String: group.RecurrenceUntil.UTC().Format(timeLayout), Valid: true}
		}
		_, err := tx.Exec(`
			INSERT INTO booking_groups (id, requester_id, resource_id, purpose, kind, recurrence_frequency, recurrence_until, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			group.ID,
			group.RequesterID,
			group.ResourceID,
			group.Purpose,
			group.Kind,
			nullString(group.RecurrenceFrequency),
			until,
			group.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return mapError(err)
		}

		for _, occ := range occurrences {
			_, err := tx.Exec(`
				INSERT INTO occurrences (id, group_id, resource_id, requester_id, start_at, end_at, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				occ.ID,
				occ.GroupID,
				occ.ResourceID,
				occ.RequesterID,
				occ.Start.UTC().Format(timeLayout),
				occ.End.UTC().Format(timeLayout),
				occ.Status,
				occ.CreatedAt.UTC().Format(timeLayout),
				occ.UpdatedAt.UTC().Format(timeLayout),
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetGroup retrieves a booking group by id.
func (r *BookingRepository) GetGroup(ctx context.Context, id string) (persistence.BookingGroup, error) {
	row := r.pool.db.QueryRowContext(ctx, groupSelect+` WHERE id = ?`, id)
	return scanGroup(row)
}

// ListGroups returns groups newest first. An empty requesterID lists all
// groups.
func (r *BookingRepository) ListGroups(ctx context.Context, requesterID string) ([]persistence.BookingGroup, error) {
	query := groupSelect
	args := []any{}
	if requesterID != "" {
		query += ` WHERE requester_id = ?`
		args = append(args, requesterID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var groups []persistence.BookingGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// GetOccurrence retrieves an occurrence by id.
func (r *BookingRepository) GetOccurrence(ctx context.Context, id string) (persistence.Occurrence, error) {
	row := r.pool.db.QueryRowContext(ctx, occurrenceSelect+` WHERE id = ?`, id)
	return scanOccurrence(row)
}

// UpdateOccurrence rewrites an occurrence, typically after a status
// transition.
func (r *BookingRepository) UpdateOccurrence(ctx context.Context, occ persistence.Occurrence) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE occurrences
		SET start_at = ?, end_at = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		occ.Start.UTC().Format(timeLayout),
		occ.End.UTC().Format(timeLayout),
		occ.Status,
		occ.UpdatedAt.UTC().Format(timeLayout),
		occ.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ListOccurrences returns occurrences matching the filter ordered by start
// time.
func (r *BookingRepository) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.Occurrence, error) {
	query := occurrenceSelect + ` WHERE 1=1`
	args := []any{}
	if filter.ResourceID != "" {
		query += ` AND resource_id = ?`
		args = append(args, filter.ResourceID)
	}
	if filter.GroupID != "" {
		query += ` AND group_id = ?`
		args = append(args, filter.GroupID)
	}
	if filter.RequesterID != "" {
		query += ` AND requester_id = ?`
		args = append(args, filter.RequesterID)
	}
	if filter.ActiveOnly {
		query += ` AND status IN ('pending', 'approved')`
	}
	if filter.OverlappingStart != nil && filter.OverlappingEnd != nil {
		// Half-open overlap: start < range end AND range start < end.
		query += ` AND start_at < ? AND ? < end_at`
		args = append(args,
			filter.OverlappingEnd.UTC().Format(timeLayout),
			filter.OverlappingStart.UTC().Format(timeLayout))
	}
	query += ` ORDER BY start_at, id`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var occurrences []persistence.Occurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, rows.Err()
}

const groupSelect = `
	SELECT id, requester_id, resource_id, purpose, kind, recurrence_frequency, recurrence_until, created_at
	FROM booking_groups`

const occurrenceSelect = `
	SELECT id, group_id, resource_id, requester_id, start_at, end_at, status, created_at, updated_at
	FROM occurrences`

func scanGroup(row rowScanner) (persistence.BookingGroup, error) {
	var (
		group     persistence.BookingGroup
		frequency sql.NullString
		until     sql.NullString
		created   string
	)
	err := row.Scan(&group.ID, &group.RequesterID, &group.ResourceID, &group.Purpose,
		&group.Kind, &frequency, &until, &created)
	if err != nil {
		return persistence.BookingGroup{}, mapError(err)
	}
	group.RecurrenceFrequency = fromNullString(frequency)
	if until.Valid {
		parsed, err := parseTime(until.String)
		if err != nil {
			return persistence.BookingGroup{}, err
		}
		group.RecurrenceUntil = &parsed
	}
	if group.CreatedAt, err = parseTime(created); err != nil {
		return persistence.BookingGroup{}, err
	}
	return group, nil
}

func scanOccurrence(row rowScanner) (persistence.Occurrence, error) {
	var (
		occ                           persistence.Occurrence
		start, end, created, updated string
	)
	err := row.Scan(&occ.ID, &occ.GroupID, &occ.ResourceID, &occ.RequesterID,
		&start, &end, &occ.Status, &created, &updated)
	if err != nil {
		return persistence.Occurrence{}, mapError(err)
	}
	if occ.Start, err = parseTime(start); err != nil {
		return persistence.Occurrence{}, err
	}
	if occ.End, err = parseTime(end); err != nil {
		return persistence.Occurrence{}, err
	}
	if occ.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Occurrence{}, err
	}
	if occ.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Occurrence{}, err
	}
	return occ, nil
}
