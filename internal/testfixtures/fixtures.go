// Package testfixtures supplies deterministic builders and harnesses shared by
// tests across the repository: a controllable clock, a sequential identifier
// generator, record builders for the persistence model, and a temporary SQLite
// harness.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/channasilva/crms-server/internal/persistence"
)

var (
	userCounter       uint64
	resourceCounter   uint64
	groupCounter      uint64
	occurrenceCounter uint64
	sessionCounter    uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user record.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@campus.edu", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         "student",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserRole overrides the generated role.
func WithUserRole(role string) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// ResourceOption configures a generated resource record.
type ResourceOption func(*persistence.Resource)

// NewResource returns a deterministic resource record with optional overrides.
func NewResource(opts ...ResourceOption) persistence.Resource {
	idx := atomic.AddUint64(&resourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	resource := persistence.Resource{
		ID:        fmt.Sprintf("res-%03d", idx),
		Name:      fmt.Sprintf("Resource %03d", idx),
		Type:      "room",
		Location:  fmt.Sprintf("Building A, Floor %d", idx%4+1),
		Capacity:  30,
		Status:    "available",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&resource)
	}
	return resource
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(r *persistence.Resource) { r.ID = id }
}

// WithResourceType overrides the generated resource type.
func WithResourceType(resourceType string) ResourceOption {
	return func(r *persistence.Resource) { r.Type = resourceType }
}

// WithResourceStatus overrides the generated availability status.
func WithResourceStatus(status string) ResourceOption {
	return func(r *persistence.Resource) { r.Status = status }
}

// WithResourceCapacity overrides the generated capacity.
func WithResourceCapacity(capacity int) ResourceOption {
	return func(r *persistence.Resource) { r.Capacity = capacity }
}

// GroupOption configures a generated booking group record.
type GroupOption func(*persistence.BookingGroup)

// NewBookingGroup returns a deterministic booking group with optional overrides.
func NewBookingGroup(requesterID, resourceID string, opts ...GroupOption) persistence.BookingGroup {
	idx := atomic.AddUint64(&groupCounter, 1)
	group := persistence.BookingGroup{
		ID:          fmt.Sprintf("grp-%03d", idx),
		RequesterID: requesterID,
		ResourceID:  resourceID,
		Purpose:     fmt.Sprintf("Purpose %03d", idx),
		Kind:        "single",
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&group)
	}
	return group
}

// WithGroupID overrides the generated group ID.
func WithGroupID(id string) GroupOption {
	return func(g *persistence.BookingGroup) { g.ID = id }
}

// WithGroupRecurrence marks the group as recurring with the given rule.
func WithGroupRecurrence(frequency string, until time.Time) GroupOption {
	return func(g *persistence.BookingGroup) {
		g.Kind = "recurring"
		g.RecurrenceFrequency = &frequency
		g.RecurrenceUntil = &until
	}
}

// OccurrenceOption configures a generated occurrence record.
type OccurrenceOption func(*persistence.Occurrence)

// NewOccurrence returns a deterministic occurrence belonging to the supplied
// group. Each call advances the slot by one day so that sibling occurrences do
// not overlap by accident.
func NewOccurrence(group persistence.BookingGroup, opts ...OccurrenceOption) persistence.Occurrence {
	idx := atomic.AddUint64(&occurrenceCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)
	occurrence := persistence.Occurrence{
		ID:          fmt.Sprintf("occ-%03d", idx),
		GroupID:     group.ID,
		ResourceID:  group.ResourceID,
		RequesterID: group.RequesterID,
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      "pending",
		CreatedAt:   group.CreatedAt,
		UpdatedAt:   group.CreatedAt,
	}
	for _, opt := range opts {
		opt(&occurrence)
	}
	return occurrence
}

// WithOccurrenceID overrides the generated occurrence ID.
func WithOccurrenceID(id string) OccurrenceOption {
	return func(o *persistence.Occurrence) { o.ID = id }
}

// WithOccurrenceStatus overrides the generated status.
func WithOccurrenceStatus(status string) OccurrenceOption {
	return func(o *persistence.Occurrence) { o.Status = status }
}

// WithOccurrenceSlot overrides the generated time slot.
func WithOccurrenceSlot(start, end time.Time) OccurrenceOption {
	return func(o *persistence.Occurrence) {
		o.Start = start
		o.End = end
	}
}

// SessionOption configures a generated session record.
type SessionOption func(*persistence.Session)

// NewSession returns a deterministic session for the supplied user.
func NewSession(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	session := persistence.Session{
		ID:        fmt.Sprintf("sess-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(s *persistence.Session) { s.Token = token }
}

// WithSessionExpiry overrides the generated expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(s *persistence.Session) { s.ExpiresAt = expiresAt }
}

// WithSessionRevokedAt marks the session as revoked at the given instant.
func WithSessionRevokedAt(revokedAt time.Time) SessionOption {
	return func(s *persistence.Session) { s.RevokedAt = &revokedAt }
}
