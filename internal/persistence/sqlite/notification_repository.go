package sqlite

import (
	"context"

	"github.com/channasilva/crms-server/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository on
// SQLite.
type NotificationRepository struct {
	pool *ConnectionPool
}

// NewNotificationRepository creates a SQLite-backed notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// CreateNotification inserts a new notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Type,
		notification.Read,
		notification.CreatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// ListNotificationsForUser returns the user's notifications newest first.
func (r *NotificationRepository) ListNotificationsForUser(ctx context.Context, userID string) ([]persistence.Notification, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var (
			notification persistence.Notification
			created      string
		)
		if err := rows.Scan(&notification.ID, &notification.UserID, &notification.Title,
			&notification.Message, &notification.Type, &notification.Read, &created); err != nil {
			return nil, mapError(err)
		}
		if notification.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags a notification as read. The userID guard keeps
// users from acknowledging each other's notifications.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}
