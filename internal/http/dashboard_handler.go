package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/channasilva/crms-server/internal/application"
)

type dashboardService interface {
	Stats(ctx context.Context, principal application.Principal) (application.DashboardStats, error)
}

type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Stats", "principal_id", principal.UserID)

	stats, err := h.service.Stats(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "dashboard stats failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardStatsResponse{Stats: toStatsDTO(stats)})
}

type dashboardStatsResponse struct {
	Stats dashboardStatsDTO `json:"stats"`
}

type dashboardStatsDTO struct {
	TotalResources     int     `json:"total_resources"`
	AvailableResources int     `json:"available_resources"`
	PendingApprovals   int     `json:"pending_approvals"`
	ActiveBookings     int     `json:"active_bookings"`
	UtilizationRate    float64 `json:"utilization_rate"`
	GeneratedAt        string  `json:"generated_at"`
}

func toStatsDTO(stats application.DashboardStats) dashboardStatsDTO {
	return dashboardStatsDTO{
		TotalResources:     stats.TotalResources,
		AvailableResources: stats.AvailableResources,
		PendingApprovals:   stats.PendingApprovals,
		ActiveBookings:     stats.ActiveBookings,
		UtilizationRate:    stats.UtilizationRate,
		GeneratedAt:        stats.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}
}
