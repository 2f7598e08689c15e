package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/channasilva/crms-server/internal/persistence"
)

// NotificationService exposes a user's stored notifications.
type NotificationService struct {
	notifications persistence.NotificationRepository
}

// NewNotificationService wires dependencies for the notification service.
func NewNotificationService(notifications persistence.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListNotifications returns the principal's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, principal Principal) ([]persistence.Notification, error) {
	if s == nil {
		return nil, fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return nil, nil
	}
	return s.notifications.ListNotificationsForUser(ctx, principal.UserID)
}

// MarkRead flags one of the principal's notifications as read. A notification
// belonging to another user is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, principal Principal, notificationID string) error {
	if s == nil {
		return fmt.Errorf("NotificationService is nil")
	}
	if s.notifications == nil {
		return fmt.Errorf("notification repository not configured")
	}

	if err := s.notifications.MarkNotificationRead(ctx, notificationID, principal.UserID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
