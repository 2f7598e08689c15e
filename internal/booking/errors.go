package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a malformed submission (bad interval,
	// empty purpose, unsupported recurrence rule). User input error.
	ErrInvalidRequest = errors.New("booking: invalid request")
	// ErrResourceUnavailable indicates a submitted occurrence overlaps an
	// approved occurrence on the same resource.
	ErrResourceUnavailable = errors.New("booking: resource unavailable for the requested time")
	// ErrAlreadyBooked indicates an approval-time conflict with another
	// approved occurrence.
	ErrAlreadyBooked = errors.New("booking: slot already booked by an approved occurrence")
	// ErrResourceNotBookable indicates the catalog precondition failed, e.g.
	// the resource is under maintenance.
	ErrResourceNotBookable = errors.New("booking: resource is not bookable")
	// ErrDuplicateOccurrence indicates an occurrence id was inserted twice.
	// Integrity error, never expected in normal operation.
	ErrDuplicateOccurrence = errors.New("booking: duplicate occurrence")
	// ErrInvalidTransition indicates a lifecycle transition not permitted
	// from the occurrence's current status.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	// ErrOccurrenceNotFound indicates the occurrence is not in the active set.
	ErrOccurrenceNotFound = errors.New("booking: occurrence not found")
	// ErrForbidden indicates the actor lacks the capability for the action.
	ErrForbidden = errors.New("booking: actor not permitted")
)

// ConflictError reports the first occurrence that blocked a submission or
// approval. It unwraps to ErrResourceUnavailable or ErrAlreadyBooked
// depending on when the conflict was discovered.
type ConflictError struct {
	Conflict Occurrence
	reason   error
}

func newConflictError(reason error, conflict Occurrence) *ConflictError {
	return &ConflictError{Conflict: conflict, reason: reason}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: conflicts with occurrence %s (%s to %s)",
		e.reason, e.Conflict.ID,
		e.Conflict.Interval.Start.Format("2006-01-02 15:04"),
		e.Conflict.Interval.End.Format("2006-01-02 15:04"))
}

func (e *ConflictError) Unwrap() error {
	return e.reason
}
