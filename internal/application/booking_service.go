package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/interval"
	"github.com/channasilva/crms-server/internal/persistence"
	"github.com/channasilva/crms-server/internal/recurrence"
)

// BookingService drives the scheduling core: submissions go through the
// scheduler, transitions through the lifecycle, and both are mirrored to the
// store, the audit log, and the requester's notifications.
type BookingService struct {
	scheduler   *booking.Scheduler
	lifecycle   *booking.Lifecycle
	bookings    persistence.BookingRepository
	audit       persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires the scheduling core against the persistence and
// notification collaborators. The conflict index is shared state: the caller
// loads it from storage at startup and hands it in.
func NewBookingService(
	index *booking.ConflictIndex,
	bookings persistence.BookingRepository,
	gate booking.ResourceGate,
	notifications persistence.NotificationRepository,
	audit persistence.AuditRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	logger = defaultLogger(logger)

	store := &bookingStoreAdapter{bookings: bookings, now: now}
	notifier := &statusNotifier{
		notifications: notifications,
		idGenerator:   idGenerator,
		now:           now,
		logger:        logger,
	}

	return &BookingService{
		scheduler:   booking.NewScheduler(index, store, gate, idGenerator, now, logger),
		lifecycle:   booking.NewLifecycle(index, store, notifier, now, logger),
		bookings:    bookings,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Submit expands and commits a booking request as pending soft holds.
func (s *BookingService) Submit(ctx context.Context, params SubmitBookingParams) (group booking.Group, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Submit",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"group_id", group.ID,
			"occurrence_count", len(group.Occurrences),
		).InfoContext(ctx, "booking submitted")
	}()

	if !booking.Allowed(params.Principal.Role, booking.ActionSubmit) {
		err = ErrUnauthorized
		return
	}

	var rule *recurrence.Rule
	if params.Recurrence != nil {
		rule = &recurrence.Rule{
			Frequency: recurrence.Frequency(strings.ToLower(strings.TrimSpace(params.Recurrence.Frequency))),
			Until:     params.Recurrence.Until,
		}
	}

	group, err = s.scheduler.Submit(ctx, booking.Request{
		RequesterID: params.Principal.UserID,
		ResourceID:  params.ResourceID,
		Interval:    interval.Interval{Start: params.Start, End: params.End},
		Purpose:     params.Purpose,
		Recurrence:  rule,
	})
	if err != nil {
		return
	}

	s.appendAudit(ctx, params.Principal.UserID, "booking.submit", "booking:"+group.ID,
		fmt.Sprintf("%d occurrence(s) on resource %s", len(group.Occurrences), group.ResourceID))
	return
}

// ListBookings returns booking groups: all of them for administrators, the
// principal's own otherwise. Groups come back newest first.
func (s *BookingService) ListBookings(ctx context.Context, principal Principal) ([]persistence.BookingGroup, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return nil, nil
	}

	requesterID := principal.UserID
	if principal.IsAdmin() {
		requesterID = ""
	}
	return s.bookings.ListGroups(ctx, requesterID)
}

// GetBooking returns a group and its stored occurrences. Non-admins may only
// see their own groups.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, groupID string) (BookingDetail, error) {
	if s == nil {
		return BookingDetail{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return BookingDetail{}, fmt.Errorf("booking repository not configured")
	}

	group, err := s.bookings.GetGroup(ctx, groupID)
	if err != nil {
		return BookingDetail{}, mapBookingRepoError(err)
	}
	if !principal.IsAdmin() && group.RequesterID != principal.UserID {
		return BookingDetail{}, ErrUnauthorized
	}

	occurrences, err := s.bookings.ListOccurrences(ctx, persistence.OccurrenceFilter{GroupID: groupID})
	if err != nil {
		return BookingDetail{}, mapBookingRepoError(err)
	}

	return BookingDetail{Group: group, Occurrences: occurrences}, nil
}

// ListPendingOccurrences returns the approval queue for administrators,
// ordered by start time.
func (s *BookingService) ListPendingOccurrences(ctx context.Context, principal Principal) ([]persistence.Occurrence, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.bookings == nil {
		return nil, nil
	}

	active, err := s.bookings.ListOccurrences(ctx, persistence.OccurrenceFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	pending := make([]persistence.Occurrence, 0, len(active))
	for _, occ := range active {
		if booking.Status(occ.Status) == booking.StatusPending {
			pending = append(pending, occ)
		}
	}
	return pending, nil
}

// Approve moves a pending occurrence to approved after re-checking the slot
// against approved occurrences from other groups.
func (s *BookingService) Approve(ctx context.Context, principal Principal, occurrenceID string) (booking.Occurrence, error) {
	return s.transition(ctx, principal, occurrenceID, "booking.approve", s.lifecycle.Approve)
}

// Reject moves a pending occurrence to rejected, releasing its soft hold.
func (s *BookingService) Reject(ctx context.Context, principal Principal, occurrenceID string) (booking.Occurrence, error) {
	return s.transition(ctx, principal, occurrenceID, "booking.reject", s.lifecycle.Reject)
}

// Cancel moves an approved occurrence to cancelled, freeing the slot.
func (s *BookingService) Cancel(ctx context.Context, principal Principal, occurrenceID string) (booking.Occurrence, error) {
	return s.transition(ctx, principal, occurrenceID, "booking.cancel", s.lifecycle.Cancel)
}

func (s *BookingService) transition(
	ctx context.Context,
	principal Principal,
	occurrenceID string,
	action string,
	apply func(context.Context, booking.Actor, booking.Occurrence) (booking.Occurrence, error),
) (updated booking.Occurrence, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, action,
		"principal_id", principal.UserID,
		"occurrence_id", occurrenceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition occurrence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", string(updated.Status)).InfoContext(ctx, "occurrence transitioned")
	}()

	stored, err := s.bookings.GetOccurrence(ctx, occurrenceID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	updated, err = apply(ctx, principal.Actor(), toCoreOccurrence(stored))
	if err != nil {
		return
	}

	s.appendAudit(ctx, principal.UserID, action, "occurrence:"+updated.ID,
		fmt.Sprintf("%s -> %s on resource %s", stored.Status, updated.Status, updated.ResourceID))
	return
}

// appendAudit records the entry best-effort; the transition already happened.
func (s *BookingService) appendAudit(ctx context.Context, actorID, action, entity, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.AppendAudit(ctx, persistence.AuditEntry{
		ID:        s.idGenerator(),
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		Detail:    detail,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit entry", "action", action, "entity", entity, "error", err)
	}
}

func toCoreOccurrence(occ persistence.Occurrence) booking.Occurrence {
	return booking.Occurrence{
		ID:          occ.ID,
		GroupID:     occ.GroupID,
		ResourceID:  occ.ResourceID,
		RequesterID: occ.RequesterID,
		Interval:    interval.Interval{Start: occ.Start, End: occ.End},
		Status:      booking.Status(occ.Status),
	}
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

// bookingStoreAdapter bridges the core's store interfaces onto the booking
// repository. Writes happen after the in-memory commit; failures are
// surfaced to the core, which logs and keeps the index authoritative.
type bookingStoreAdapter struct {
	bookings persistence.BookingRepository
	now      func() time.Time
}

func (a *bookingStoreAdapter) SaveGroup(ctx context.Context, group booking.Group) error {
	if a == nil || a.bookings == nil {
		return nil
	}

	stored := persistence.BookingGroup{
		ID:          group.ID,
		RequesterID: group.RequesterID,
		ResourceID:  group.ResourceID,
		Purpose:     group.Purpose,
		Kind:        string(group.Kind),
		CreatedAt:   group.CreatedAt,
	}
	if group.Recurrence != nil {
		freq := string(group.Recurrence.Frequency)
		until := group.Recurrence.Until
		stored.RecurrenceFrequency = &freq
		stored.RecurrenceUntil = &until
	}

	occurrences := make([]persistence.Occurrence, 0, len(group.Occurrences))
	for _, occ := range group.Occurrences {
		occurrences = append(occurrences, persistence.Occurrence{
			ID:          occ.ID,
			GroupID:     occ.GroupID,
			ResourceID:  occ.ResourceID,
			RequesterID: occ.RequesterID,
			Start:       occ.Interval.Start,
			End:         occ.Interval.End,
			Status:      string(occ.Status),
			CreatedAt:   group.CreatedAt,
			UpdatedAt:   group.CreatedAt,
		})
	}

	return a.bookings.CreateGroup(ctx, stored, occurrences)
}

func (a *bookingStoreAdapter) SaveOccurrence(ctx context.Context, occ booking.Occurrence) error {
	if a == nil || a.bookings == nil {
		return nil
	}

	stored, err := a.bookings.GetOccurrence(ctx, occ.ID)
	if err != nil {
		return err
	}
	stored.Status = string(occ.Status)
	stored.UpdatedAt = a.now()
	return a.bookings.UpdateOccurrence(ctx, stored)
}

// statusNotifier turns lifecycle transitions into stored notifications for
// the requester. Delivery is fire-and-forget: a failed write is logged and
// never blocks the transition.
type statusNotifier struct {
	notifications persistence.NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

func (n *statusNotifier) StatusChanged(ctx context.Context, change booking.StatusChange) {
	if n == nil || n.notifications == nil {
		return
	}

	title, kind := describeStatusChange(change.NewStatus)
	message := fmt.Sprintf("Your booking on resource %s is now %s.", change.ResourceID, change.NewStatus)

	err := n.notifications.CreateNotification(ctx, persistence.Notification{
		ID:        n.idGenerator(),
		UserID:    change.RequesterID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: change.At,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to store notification",
			"occurrence_id", change.OccurrenceID, "user_id", change.RequesterID, "error", err)
	}
}

func describeStatusChange(status booking.Status) (title, kind string) {
	switch status {
	case booking.StatusApproved:
		return "Booking approved", "approval"
	case booking.StatusRejected:
		return "Booking rejected", "approval"
	case booking.StatusCancelled:
		return "Booking cancelled", "booking"
	}
	return "Booking updated", "system"
}
