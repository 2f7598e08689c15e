package application

import (
	"time"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   booking.Role
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == booking.RoleAdmin
}

// Actor converts the principal into the form the booking lifecycle consumes.
func (p Principal) Actor() booking.Actor {
	return booking.Actor{UserID: p.UserID, Role: p.Role}
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    persistence.User
	Session persistence.Session
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        string
	Department  *string
	Phone       *string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// ProfileInput captures the attributes a user may change on their own account.
type ProfileInput struct {
	DisplayName string
	Department  *string
	Phone       *string
	Password    string
}

// ResourceInput captures caller provided resource catalog fields.
type ResourceInput struct {
	Name        string
	Type        string
	Location    string
	Capacity    int
	Status      string
	Description *string
	Features    []string
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// RecurrenceInput captures an optional recurrence rule on a booking submission.
type RecurrenceInput struct {
	Frequency string
	Until     time.Time
}

// SubmitBookingParams wraps the data required to submit a booking.
type SubmitBookingParams struct {
	Principal  Principal
	ResourceID string
	Start      time.Time
	End        time.Time
	Purpose    string
	Recurrence *RecurrenceInput
}

// BookingDetail pairs a booking group with its stored occurrences.
type BookingDetail struct {
	Group       persistence.BookingGroup
	Occurrences []persistence.Occurrence
}

// DashboardStats summarizes the current booking load for the dashboard.
type DashboardStats struct {
	TotalResources     int
	AvailableResources int
	PendingApprovals   int
	ActiveBookings     int
	UtilizationRate    float64
	GeneratedAt        time.Time
}
