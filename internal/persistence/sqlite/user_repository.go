package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, role, department, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Role,
		nullString(user.Department),
		nullString(user.Phone),
		user.CreatedAt.UTC().Format(timeLayout),
		user.UpdatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// UpdateUser rewrites an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, role = ?, department = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.PasswordHash,
		user.Role,
		nullString(user.Department),
		nullString(user.Phone),
		user.UpdatedAt.UTC().Format(timeLayout),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by normalized email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx, userSelect+` WHERE email = ?`, normalizeEmail(email))
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, userSelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser removes a user by id.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

const userSelect = `
	SELECT id, email, display_name, password_hash, role, department, phone, created_at, updated_at
	FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user              persistence.User
		department, phone sql.NullString
		created, updated  string
	)
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash,
		&user.Role, &department, &phone, &created, &updated)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	user.Department = fromNullString(department)
	user.Phone = fromNullString(phone)
	if user.CreatedAt, err = parseTime(created); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
