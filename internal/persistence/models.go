package persistence

import "time"

// User represents a campus account in the booking domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	Department   *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource represents a bookable catalog entry: a room, lab, equipment item
// or vehicle.
type Resource struct {
	ID          string
	Name        string
	Type        string
	Location    string
	Capacity    int
	Status      string
	Description *string
	Features    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingGroup represents one submission: the shared metadata of all
// occurrences committed together.
type BookingGroup struct {
	ID                  string
	RequesterID         string
	ResourceID          string
	Purpose             string
	Kind                string
	RecurrenceFrequency *string
	RecurrenceUntil     *time.Time
	CreatedAt           time.Time
}

// Occurrence represents one concrete reserved time slot of a booking group.
type Occurrence struct {
	ID          string
	GroupID     string
	ResourceID  string
	RequesterID string
	Start       time.Time
	End         time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Notification represents an in-app message shown to a user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	Read      bool
	CreatedAt time.Time
}

// AuditEntry represents one append-only audit log record.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    string
	Entity    string
	Detail    string
	CreatedAt time.Time
}
