package booking

import (
	"context"
	"log/slog"
	"time"
)

// OccurrenceStore persists lifecycle transitions. As with group persistence,
// a failed write never rolls back the in-memory transition.
type OccurrenceStore interface {
	SaveOccurrence(ctx context.Context, occ Occurrence) error
}

// Notifier receives status change events. Delivery is fire-and-forget.
type Notifier interface {
	StatusChanged(ctx context.Context, change StatusChange)
}

// Lifecycle governs occurrence status transitions: who may trigger them and
// what the conflict index must confirm before they take effect.
type Lifecycle struct {
	index    *ConflictIndex
	store    OccurrenceStore
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

// NewLifecycle wires the lifecycle dependencies.
func NewLifecycle(index *ConflictIndex, store OccurrenceStore, notifier Notifier, now func() time.Time, logger *slog.Logger) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{index: index, store: store, notifier: notifier, now: now, logger: logger}
}

// Approve transitions a pending occurrence to approved. The conflict index
// re-checks for overlapping approved occurrences under the resource lock:
// when several pending holds compete for one slot, the first approval wins
// and later ones fail with ErrAlreadyBooked.
func (l *Lifecycle) Approve(ctx context.Context, actor Actor, occ Occurrence) (Occurrence, error) {
	if !Allowed(actor.Role, ActionApprove) {
		return Occurrence{}, ErrForbidden
	}
	return l.transition(ctx, occ, StatusApproved)
}

// Reject transitions a pending occurrence to rejected and releases its hold.
func (l *Lifecycle) Reject(ctx context.Context, actor Actor, occ Occurrence) (Occurrence, error) {
	if !Allowed(actor.Role, ActionReject) {
		return Occurrence{}, ErrForbidden
	}
	return l.transition(ctx, occ, StatusRejected)
}

// Cancel transitions an approved occurrence to cancelled. Only the requester
// or an admin may cancel.
func (l *Lifecycle) Cancel(ctx context.Context, actor Actor, occ Occurrence) (Occurrence, error) {
	if !Allowed(actor.Role, ActionCancel) {
		return Occurrence{}, ErrForbidden
	}
	if actor.Role != RoleAdmin && actor.UserID != occ.RequesterID {
		return Occurrence{}, ErrForbidden
	}
	return l.transition(ctx, occ, StatusCancelled)
}

func (l *Lifecycle) transition(ctx context.Context, occ Occurrence, to Status) (Occurrence, error) {
	// Terminal occurrences are no longer in the active set; reject the
	// transition here instead of reporting them missing.
	if !occ.Status.CanTransitionTo(to) {
		return Occurrence{}, ErrInvalidTransition
	}

	updated, err := l.index.Transition(occ.ResourceID, occ.ID, to)
	if err != nil {
		return Occurrence{}, err
	}

	if l.store != nil {
		if err := l.store.SaveOccurrence(ctx, updated); err != nil {
			l.logger.ErrorContext(ctx, "failed to persist occurrence transition",
				"occurrence_id", updated.ID, "status", updated.Status, "error", err)
		}
	}

	if l.notifier != nil {
		l.notifier.StatusChanged(ctx, StatusChange{
			OccurrenceID: updated.ID,
			GroupID:      updated.GroupID,
			ResourceID:   updated.ResourceID,
			RequesterID:  updated.RequesterID,
			OldStatus:    occ.Status,
			NewStatus:    updated.Status,
			At:           l.now(),
		})
	}

	return updated, nil
}
