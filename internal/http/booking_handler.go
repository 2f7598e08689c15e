package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/application"
	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

type bookingService interface {
	Submit(ctx context.Context, params application.SubmitBookingParams) (booking.Group, error)
	ListBookings(ctx context.Context, principal application.Principal) ([]persistence.BookingGroup, error)
	GetBooking(ctx context.Context, principal application.Principal, groupID string) (application.BookingDetail, error)
	ListPendingOccurrences(ctx context.Context, principal application.Principal) ([]persistence.Occurrence, error)
	Approve(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error)
	Reject(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error)
	Cancel(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req submitBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "resource_id", req.ResourceID)

	params, fieldErrs := req.toParams(principal)
	if len(fieldErrs) > 0 {
		logger.ErrorContext(r.Context(), "booking request rejected", "error_kind", "validation")
		h.responder.writeValidationErrors(r.Context(), w, fieldErrs)
		return
	}

	group, err := h.service.Submit(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking submission failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("group_id", group.ID, "occurrence_count", len(group.Occurrences)).InfoContext(r.Context(), "booking submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingGroupResponse{Group: toGroupDTO(group)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	groups, err := h.service.ListBookings(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(groups)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toStoredGroupDTOs(groups)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "group_id", groupID)

	detail, err := h.service.GetBooking(r.Context(), principal, groupID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingDetailResponse{
		Booking:     toStoredGroupDTO(detail.Group),
		Occurrences: toStoredOccurrenceDTOs(detail.Occurrences),
	})
}

func (h *BookingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListPending", "principal_id", principal.UserID)

	occurrences, err := h.service.ListPendingOccurrences(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "pending queue fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(occurrences)).InfoContext(r.Context(), "pending occurrences listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOccurrencesResponse{Occurrences: toStoredOccurrenceDTOs(occurrences)})
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Approve", func(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error) {
		return h.service.Approve(ctx, principal, occurrenceID)
	})
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Reject", func(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error) {
		return h.service.Reject(ctx, principal, occurrenceID)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", func(ctx context.Context, principal application.Principal, occurrenceID string) (booking.Occurrence, error) {
		return h.service.Cancel(ctx, principal, occurrenceID)
	})
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	apply func(context.Context, application.Principal, string) (booking.Occurrence, error),
) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	occurrenceID, ok := OccurrenceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(occurrenceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOccurrenceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "occurrence_id", occurrenceID)

	occurrence, err := apply(r.Context(), principal, occurrenceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "occurrence transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(occurrence.Status)).InfoContext(r.Context(), "occurrence transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrenceResponse{Occurrence: toOccurrenceDTO(occurrence)})
}

type submitBookingRequest struct {
	ResourceID string             `json:"resource_id"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Purpose    string             `json:"purpose"`
	Recurrence *recurrenceRequest `json:"recurrence,omitempty"`
}

type recurrenceRequest struct {
	Frequency string `json:"frequency"`
	Until     string `json:"until"`
}

func (r submitBookingRequest) toParams(principal application.Principal) (application.SubmitBookingParams, map[string]string) {
	fieldErrs := map[string]string{}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Start))
	if err != nil {
		fieldErrs["start"] = "The start time must be an RFC 3339 timestamp."
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(r.End))
	if err != nil {
		fieldErrs["end"] = "The end time must be an RFC 3339 timestamp."
	}

	params := application.SubmitBookingParams{
		Principal:  principal,
		ResourceID: strings.TrimSpace(r.ResourceID),
		Start:      start,
		End:        end,
		Purpose:    strings.TrimSpace(r.Purpose),
	}

	if r.Recurrence != nil {
		until, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Recurrence.Until))
		if err != nil {
			fieldErrs["recurrence.until"] = "The recurrence end date must be an RFC 3339 timestamp."
		}
		params.Recurrence = &application.RecurrenceInput{
			Frequency: strings.TrimSpace(r.Recurrence.Frequency),
			Until:     until,
		}
	}

	if len(fieldErrs) > 0 {
		return application.SubmitBookingParams{}, fieldErrs
	}
	return params, nil
}

type bookingGroupResponse struct {
	Group groupDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []storedGroupDTO `json:"bookings"`
}

type bookingDetailResponse struct {
	Booking     storedGroupDTO        `json:"booking"`
	Occurrences []storedOccurrenceDTO `json:"occurrences"`
}

type listOccurrencesResponse struct {
	Occurrences []storedOccurrenceDTO `json:"occurrences"`
}

type occurrenceResponse struct {
	Occurrence occurrenceDTO `json:"occurrence"`
}

type groupDTO struct {
	ID          string          `json:"id"`
	RequesterID string          `json:"requester_id"`
	ResourceID  string          `json:"resource_id"`
	Purpose     string          `json:"purpose"`
	Kind        string          `json:"kind"`
	Recurrence  *recurrenceDTO  `json:"recurrence,omitempty"`
	Occurrences []occurrenceDTO `json:"occurrences"`
	CreatedAt   string          `json:"created_at"`
}

type recurrenceDTO struct {
	Frequency string `json:"frequency"`
	Until     string `json:"until"`
}

type occurrenceDTO struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	ResourceID  string `json:"resource_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status"`
}

func toGroupDTO(group booking.Group) groupDTO {
	dto := groupDTO{
		ID:          group.ID,
		RequesterID: group.RequesterID,
		ResourceID:  group.ResourceID,
		Purpose:     group.Purpose,
		Kind:        string(group.Kind),
		CreatedAt:   group.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if group.Recurrence != nil {
		dto.Recurrence = &recurrenceDTO{
			Frequency: string(group.Recurrence.Frequency),
			Until:     group.Recurrence.Until.UTC().Format(time.RFC3339Nano),
		}
	}
	for _, occurrence := range group.Occurrences {
		dto.Occurrences = append(dto.Occurrences, toOccurrenceDTO(occurrence))
	}
	return dto
}

func toOccurrenceDTO(occurrence booking.Occurrence) occurrenceDTO {
	return occurrenceDTO{
		ID:          occurrence.ID,
		GroupID:     occurrence.GroupID,
		ResourceID:  occurrence.ResourceID,
		RequesterID: occurrence.RequesterID,
		Start:       occurrence.Interval.Start.UTC().Format(time.RFC3339Nano),
		End:         occurrence.Interval.End.UTC().Format(time.RFC3339Nano),
		Status:      string(occurrence.Status),
	}
}

type storedGroupDTO struct {
	ID          string         `json:"id"`
	RequesterID string         `json:"requester_id"`
	ResourceID  string         `json:"resource_id"`
	Purpose     string         `json:"purpose"`
	Kind        string         `json:"kind"`
	Recurrence  *recurrenceDTO `json:"recurrence,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

type storedOccurrenceDTO struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	ResourceID  string `json:"resource_id"`
	RequesterID string `json:"requester_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toStoredGroupDTO(group persistence.BookingGroup) storedGroupDTO {
	dto := storedGroupDTO{
		ID:          group.ID,
		RequesterID: group.RequesterID,
		ResourceID:  group.ResourceID,
		Purpose:     group.Purpose,
		Kind:        group.Kind,
		CreatedAt:   group.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if group.RecurrenceFrequency != nil && group.RecurrenceUntil != nil {
		dto.Recurrence = &recurrenceDTO{
			Frequency: *group.RecurrenceFrequency,
			Until:     group.RecurrenceUntil.UTC().Format(time.RFC3339Nano),
		}
	}
	return dto
}

func toStoredGroupDTOs(groups []persistence.BookingGroup) []storedGroupDTO {
	if len(groups) == 0 {
		return nil
	}
	out := make([]storedGroupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toStoredGroupDTO(group))
	}
	return out
}

func toStoredOccurrenceDTO(occurrence persistence.Occurrence) storedOccurrenceDTO {
	return storedOccurrenceDTO{
		ID:          occurrence.ID,
		GroupID:     occurrence.GroupID,
		ResourceID:  occurrence.ResourceID,
		RequesterID: occurrence.RequesterID,
		Start:       occurrence.Start.UTC().Format(time.RFC3339Nano),
		End:         occurrence.End.UTC().Format(time.RFC3339Nano),
		Status:      occurrence.Status,
		CreatedAt:   occurrence.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   occurrence.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toStoredOccurrenceDTOs(occurrences []persistence.Occurrence) []storedOccurrenceDTO {
	if len(occurrences) == 0 {
		return nil
	}
	out := make([]storedOccurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, toStoredOccurrenceDTO(occurrence))
	}
	return out
}
