package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type recordingOccurrenceStore struct {
	saved []Occurrence
	err   error
}

func (s *recordingOccurrenceStore) SaveOccurrence(_ context.Context, occ Occurrence) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, occ)
	return nil
}

type recordingNotifier struct {
	changes []StatusChange
}

func (n *recordingNotifier) StatusChanged(_ context.Context, change StatusChange) {
	n.changes = append(n.changes, change)
}

func newTestLifecycle(idx *ConflictIndex, store OccurrenceStore, notifier Notifier) *Lifecycle {
	return NewLifecycle(idx, store, notifier, fixedNow, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var admin = Actor{UserID: "admin-1", Role: RoleAdmin}

func TestApproveEmitsStatusChange(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	occ := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusPending)
	if err := idx.Insert(occ); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := &recordingOccurrenceStore{}
	notifier := &recordingNotifier{}
	l := newTestLifecycle(idx, store, notifier)

	updated, err := l.Approve(context.Background(), admin, occ)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if len(store.saved) != 1 || store.saved[0].Status != StatusApproved {
		t.Fatalf("expected the transition to be persisted, got %+v", store.saved)
	}
	if len(notifier.changes) != 1 {
		t.Fatalf("expected one status change event, got %d", len(notifier.changes))
	}
	change := notifier.changes[0]
	if change.OccurrenceID != "occ-a" || change.OldStatus != StatusPending || change.NewStatus != StatusApproved {
		t.Fatalf("unexpected status change: %+v", change)
	}
}

func TestApproveCompetingHoldFails(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	a := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusPending)
	b := occurrence("occ-b", "g2", "r1", slot(1, 9, 1), StatusPending)
	for _, occ := range []Occurrence{a, b} {
		if err := idx.Insert(occ); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	l := newTestLifecycle(idx, nil, nil)

	if _, err := l.Approve(context.Background(), admin, a); err != nil {
		t.Fatalf("approving first hold: %v", err)
	}
	if _, err := l.Approve(context.Background(), admin, b); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked for second hold, got %v", err)
	}
}

func TestRejectReleasesSlot(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	occ := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusPending)
	if err := idx.Insert(occ); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l := newTestLifecycle(idx, nil, &recordingNotifier{})

	rejected, err := l.Reject(context.Background(), admin, occ)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}

	// The slot is free again: an overlapping submission now succeeds.
	s := newTestScheduler(idx, nil, nil)
	req := validRequest()
	req.Interval = occ.Interval
	if _, err := s.Submit(context.Background(), req); err != nil {
		t.Fatalf("expected resubmission into the freed slot to succeed, got %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	t.Parallel()

	requester := Actor{UserID: "user-1", Role: RoleStudent}
	stranger := Actor{UserID: "user-2", Role: RoleStudent}

	setup := func(t *testing.T) (*Lifecycle, *ConflictIndex, Occurrence) {
		idx := NewConflictIndex()
		occ := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusApproved)
		if err := idx.Insert(occ); err != nil {
			t.Fatalf("seed: %v", err)
		}
		return newTestLifecycle(idx, nil, nil), idx, occ
	}

	t.Run("requester may cancel", func(t *testing.T) {
		t.Parallel()
		l, idx, occ := setup(t)
		cancelled, err := l.Cancel(context.Background(), requester, occ)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}
		if n := idx.ActiveCount("r1"); n != 0 {
			t.Fatalf("expected empty active set, got %d", n)
		}
	})

	t.Run("admin may cancel", func(t *testing.T) {
		t.Parallel()
		l, _, occ := setup(t)
		if _, err := l.Cancel(context.Background(), admin, occ); err != nil {
			t.Fatalf("cancel: %v", err)
		}
	})

	t.Run("other users may not cancel", func(t *testing.T) {
		t.Parallel()
		l, idx, occ := setup(t)
		if _, err := l.Cancel(context.Background(), stranger, occ); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if n := idx.ActiveCount("r1"); n != 1 {
			t.Fatalf("expected occurrence to remain active, got %d", n)
		}
	})
}

func TestApproveRequiresAdmin(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	occ := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusPending)
	if err := idx.Insert(occ); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l := newTestLifecycle(idx, nil, nil)

	for _, actor := range []Actor{{UserID: "u", Role: RoleLecturer}, {UserID: "u", Role: RoleStudent}} {
		if _, err := l.Approve(context.Background(), actor, occ); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s, got %v", actor.Role, err)
		}
		if _, err := l.Reject(context.Background(), actor, occ); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s, got %v", actor.Role, err)
		}
	}
}

func TestInvalidTransitionsHaveNoSideEffect(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	l := newTestLifecycle(idx, nil, &recordingNotifier{})

	rejected := occurrence("occ-a", "g1", "r1", slot(1, 9, 1), StatusRejected)
	if _, err := l.Approve(context.Background(), admin, rejected); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition approving a rejected occurrence, got %v", err)
	}

	pending := occurrence("occ-b", "g2", "r1", slot(1, 10, 1), StatusPending)
	if err := idx.Insert(pending); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := l.Cancel(context.Background(), admin, pending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling a pending occurrence, got %v", err)
	}
	if n := idx.ActiveCount("r1"); n != 1 {
		t.Fatalf("expected the pending occurrence untouched, got %d", n)
	}
}

func TestGroupApprovalIsPerOccurrence(t *testing.T) {
	t.Parallel()

	idx := NewConflictIndex()
	s := newTestScheduler(idx, nil, nil)

	// A recurring group: approving one occurrence leaves the rest pending.
	recurring := validRequest()
	recurring.Interval = slot(1, 14, 1)
	recurring.Recurrence = weeklyUntil(recurring.Interval.Start.AddDate(0, 0, 21))
	recGroup, err := s.Submit(context.Background(), recurring)
	if err != nil {
		t.Fatalf("submit recurring: %v", err)
	}
	if len(recGroup.Occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(recGroup.Occurrences))
	}

	l := newTestLifecycle(idx, nil, nil)
	if _, err := l.Approve(context.Background(), admin, recGroup.Occurrences[1]); err != nil {
		t.Fatalf("approving one occurrence: %v", err)
	}

	for i, occ := range recGroup.Occurrences {
		want := StatusPending
		if i == 1 {
			want = StatusApproved
		}
		got := idx.Query("r1", occ.Interval)
		found := false
		for _, active := range got {
			if active.ID == occ.ID {
				found = true
				if active.Status != want {
					t.Fatalf("occurrence %d status %s, want %s", i, active.Status, want)
				}
			}
		}
		if !found {
			t.Fatalf("occurrence %d missing from the active set", i)
		}
	}
}
