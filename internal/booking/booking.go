// Package booking implements the scheduling core for campus resource
// bookings: expansion of requests into occurrences, conflict detection
// against the per-resource active set, and the approval lifecycle.
package booking

import (
	"time"

	"github.com/channasilva/crms-server/internal/interval"
	"github.com/channasilva/crms-server/internal/recurrence"
)

// Request captures a booking submission. Immutable once handed to the
// Scheduler.
type Request struct {
	RequesterID string
	ResourceID  string
	Interval    interval.Interval
	Purpose     string
	Recurrence  *recurrence.Rule
}

// Occurrence is the atomic scheduling unit: one concrete time slot on one
// resource, derived from a request. Occurrences from a recurring request
// share a GroupID.
type Occurrence struct {
	ID          string
	GroupID     string
	ResourceID  string
	RequesterID string
	Interval    interval.Interval
	Status      Status
}

// GroupKind distinguishes single-shot submissions from recurring ones.
type GroupKind string

const (
	// GroupSingle marks a group holding exactly one occurrence.
	GroupSingle GroupKind = "single"
	// GroupRecurring marks a group expanded from a recurrence rule.
	GroupRecurring GroupKind = "recurring"
)

// Group is the set of occurrences committed together for one request.
// Commitment is all-or-nothing: either every occurrence entered the active
// set or none did.
type Group struct {
	ID          string
	RequesterID string
	ResourceID  string
	Purpose     string
	Kind        GroupKind
	Recurrence  *recurrence.Rule
	Occurrences []Occurrence
	CreatedAt   time.Time
}

// StatusChange describes a lifecycle transition emitted to the notifier.
type StatusChange struct {
	OccurrenceID string
	GroupID      string
	ResourceID   string
	RequesterID  string
	OldStatus    Status
	NewStatus    Status
	At           time.Time
}
