package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ResourceRepository exposes CRUD operations for the resource catalog.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error
}

// OccurrenceFilter narrows occurrence queries.
type OccurrenceFilter struct {
	ResourceID  string
	GroupID     string
	RequesterID string
	// ActiveOnly restricts results to pending and approved occurrences.
	ActiveOnly bool
	// OverlappingStart/End, when both set, restrict results to occurrences
	// overlapping the half-open range.
	OverlappingStart *time.Time
	OverlappingEnd   *time.Time
}

// BookingRepository stores booking groups and their occurrences. A group and
// its occurrences are written in one transaction.
type BookingRepository interface {
	CreateGroup(ctx context.Context, group BookingGroup, occurrences []Occurrence) error
	GetGroup(ctx context.Context, id string) (BookingGroup, error)
	ListGroups(ctx context.Context, requesterID string) ([]BookingGroup, error)
	GetOccurrence(ctx context.Context, id string) (Occurrence, error)
	UpdateOccurrence(ctx context.Context, occurrence Occurrence) error
	ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]Occurrence, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// AuditRepository appends audit log entries.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}
