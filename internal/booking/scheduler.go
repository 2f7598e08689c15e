package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/recurrence"
)

// GroupStore persists committed booking groups. Persistence runs after the
// in-memory commit and outside the resource lock; the index remains
// authoritative for conflict detection if a write fails.
type GroupStore interface {
	SaveGroup(ctx context.Context, group Group) error
}

// ResourceGate answers whether a resource may accept new bookings. Resource
// existence and maintenance flags are the catalog's responsibility; the
// scheduler only consumes its verdict.
type ResourceGate interface {
	ResourceBookable(ctx context.Context, resourceID string) error
}

// Scheduler validates booking requests, expands them into occurrences and
// commits them against the conflict index.
type Scheduler struct {
	index       *ConflictIndex
	store       GroupStore
	gate        ResourceGate
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduler wires the scheduling dependencies. The index is passed in
// explicitly; it is shared with the lifecycle and loaded at startup.
func NewScheduler(index *ConflictIndex, store GroupStore, gate ResourceGate, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Scheduler {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		index:       index,
		store:       store,
		gate:        gate,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Submit validates the request, expands its occurrences and commits them as
// pending soft holds. The commit is all-or-nothing: if any occurrence
// overlaps an approved occurrence on the resource, the whole request fails
// with ErrResourceUnavailable naming the first conflict. Overlap with other
// pending occurrences is allowed; competing holds are resolved at approval
// time.
func (s *Scheduler) Submit(ctx context.Context, req Request) (Group, error) {
	if s.gate != nil {
		if err := s.gate.ResourceBookable(ctx, req.ResourceID); err != nil {
			return Group{}, err
		}
	}
	if err := validateRequest(req); err != nil {
		return Group{}, err
	}

	intervals, err := recurrence.Expand(req.Interval, req.Recurrence)
	if err != nil {
		if errors.Is(err, recurrence.ErrRecurrenceTooLong) {
			return Group{}, err
		}
		return Group{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	kind := GroupSingle
	if req.Recurrence != nil {
		kind = GroupRecurring
	}
	group := Group{
		ID:          s.idGenerator(),
		RequesterID: req.RequesterID,
		ResourceID:  req.ResourceID,
		Purpose:     strings.TrimSpace(req.Purpose),
		Kind:        kind,
		Recurrence:  req.Recurrence,
		CreatedAt:   s.now(),
	}
	group.Occurrences = make([]Occurrence, 0, len(intervals))
	for _, iv := range intervals {
		group.Occurrences = append(group.Occurrences, Occurrence{
			ID:          s.idGenerator(),
			GroupID:     group.ID,
			ResourceID:  req.ResourceID,
			RequesterID: req.RequesterID,
			Interval:    iv,
			Status:      StatusPending,
		})
	}

	if err := s.index.CommitGroup(group.Occurrences); err != nil {
		return Group{}, err
	}

	// The in-memory commit already happened; a persistence failure leaves
	// the stored copy behind the index, which a reconciliation pass repairs
	// on restart.
	if s.store != nil {
		if err := s.store.SaveGroup(ctx, group); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist booking group",
				"group_id", group.ID, "resource_id", group.ResourceID, "error", err)
		}
	}

	return group, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.RequesterID) == "" {
		return fmt.Errorf("%w: requester required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.ResourceID) == "" {
		return fmt.Errorf("%w: resource required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return fmt.Errorf("%w: purpose required", ErrInvalidRequest)
	}
	if err := req.Interval.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
