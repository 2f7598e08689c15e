package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/channasilva/crms-server/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository on SQLite.
type ResourceRepository struct {
	pool *ConnectionPool
}

// NewResourceRepository creates a SQLite-backed resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// CreateResource inserts a new catalog entry.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO resources (id, name, type, location, capacity, status, description, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.ID,
		resource.Name,
		resource.Type,
		resource.Location,
		resource.Capacity,
		resource.Status,
		nullString(resource.Description),
		encodeFeatures(resource.Features),
		resource.CreatedAt.UTC().Format(timeLayout),
		resource.UpdatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// UpdateResource rewrites an existing catalog entry.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE resources
		SET name = ?, type = ?, location = ?, capacity = ?, status = ?, description = ?, features = ?, updated_at = ?
		WHERE id = ?`,
		resource.Name,
		resource.Type,
		resource.Location,
		resource.Capacity,
		resource.Status,
		nullString(resource.Description),
		encodeFeatures(resource.Features),
		resource.UpdatedAt.UTC().Format(timeLayout),
		resource.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetResource retrieves a catalog entry by id.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	row := r.pool.db.QueryRowContext(ctx, resourceSelect+` WHERE id = ?`, id)
	return scanResource(row)
}

// ListResources returns the full catalog ordered by creation time.
func (r *ResourceRepository) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	rows, err := r.pool.db.QueryContext(ctx, resourceSelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

// DeleteResource removes a catalog entry by id.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

const resourceSelect = `
	SELECT id, name, type, location, capacity, status, description, features, created_at, updated_at
	FROM resources`

func scanResource(row rowScanner) (persistence.Resource, error) {
	var (
		resource         persistence.Resource
		description      sql.NullString
		features         string
		created, updated string
	)
	err := row.Scan(&resource.ID, &resource.Name, &resource.Type, &resource.Location,
		&resource.Capacity, &resource.Status, &description, &features, &created, &updated)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}
	resource.Description = fromNullString(description)
	resource.Features = decodeFeatures(features)
	if resource.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}

// Features are stored as a newline-joined list; feature names never contain
// newlines.
func encodeFeatures(features []string) string {
	return strings.Join(features, "\n")
}

func decodeFeatures(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, "\n")
}
