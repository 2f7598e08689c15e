package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/logging"
	"github.com/channasilva/crms-server/internal/recurrence"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, booking.ErrForbidden):
		return "unauthorized"
	case errors.Is(err, ErrNotFound), errors.Is(err, booking.ErrOccurrenceNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, booking.ErrResourceUnavailable):
		return "resource_unavailable"
	case errors.Is(err, booking.ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, booking.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, booking.ErrResourceNotBookable):
		return "resource_not_bookable"
	case errors.Is(err, booking.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, recurrence.ErrRecurrenceTooLong):
		return "recurrence_too_long"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
