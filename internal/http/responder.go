package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/channasilva/crms-server/internal/application"
	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/recurrence"
)

var (
	errBadRequestBody        = errors.New("invalid request body")
	errInvalidUserID         = errors.New("invalid user id")
	errInvalidResourceID     = errors.New("invalid resource id")
	errInvalidBookingID      = errors.New("invalid booking id")
	errInvalidOccurrenceID   = errors.New("invalid occurrence id")
	errInvalidNotificationID = errors.New("invalid notification id")
	errMissingSessionToken   = errors.New("session token required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) writeValidationErrors(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		Message: "The submitted input is invalid.",
		Errors:  fieldErrors,
	})
}

// handleServiceError maps application and booking core errors onto HTTP
// status codes. Conflict-shaped failures (slot taken, invalid transition)
// come back as 409; input problems as 422.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized), errors.Is(err, booking.ErrForbidden):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You do not have permission to perform this action.",
		})
	case errors.Is(err, application.ErrNotFound), errors.Is(err, booking.ErrOccurrenceNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested entity was not found."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "An entity with the same identity already exists.",
		})
	case errors.Is(err, booking.ErrResourceUnavailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_UNAVAILABLE",
			Message:   "The requested slot conflicts with an approved booking.",
		})
	case errors.Is(err, booking.ErrAlreadyBooked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_BOOKED",
			Message:   "The slot was approved for another booking in the meantime.",
		})
	case errors.Is(err, booking.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   "The booking is not in a state that allows this transition.",
		})
	case errors.Is(err, booking.ErrResourceNotBookable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_NOT_BOOKABLE",
			Message:   "The resource is not currently accepting bookings.",
		})
	case errors.Is(err, recurrence.ErrRecurrenceTooLong):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "RECURRENCE_TOO_LONG",
			Message:   "The recurrence expands to more occurrences than allowed.",
		})
	case errors.Is(err, booking.ErrInvalidRequest):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_REQUEST",
			Message:   strings.TrimSpace(err.Error()),
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "The submitted input is invalid.",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal server error occurred."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
