package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

// DashboardService computes booking statistics from stored state instead of
// serving fixed placeholder numbers. Results sit behind a short TTL cache.
type DashboardService struct {
	resources persistence.ResourceRepository
	bookings  persistence.BookingRepository
	cache     *statsCache
	now       func() time.Time
	logger    *slog.Logger
}

// NewDashboardService constructs a dashboard service with the provided dependencies.
func NewDashboardService(resources persistence.ResourceRepository, bookings persistence.BookingRepository, cacheTTL time.Duration, now func() time.Time, logger *slog.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		resources: resources,
		bookings:  bookings,
		cache:     newStatsCache(cacheTTL, now),
		now:       now,
		logger:    defaultLogger(logger),
	}
}

// Stats returns the current dashboard snapshot for any authenticated user.
func (s *DashboardService) Stats(ctx context.Context, principal Principal) (stats DashboardStats, err error) {
	if s == nil {
		err = fmt.Errorf("DashboardService is nil")
		return
	}
	if s.resources == nil || s.bookings == nil {
		err = fmt.Errorf("dashboard service not configured")
		return
	}

	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}

	logger := serviceLogger(ctx, s.logger, "DashboardService", "Stats", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute dashboard stats", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "dashboard stats computed",
			"total_resources", stats.TotalResources,
			"pending_approvals", stats.PendingApprovals,
		)
	}()

	resources, err := s.resources.ListResources(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	active, err := s.bookings.ListOccurrences(ctx, persistence.OccurrenceFilter{ActiveOnly: true})
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats = DashboardStats{GeneratedAt: now}
	stats.TotalResources = len(resources)
	for _, r := range resources {
		if r.Status == "available" {
			stats.AvailableResources++
		}
	}

	// Resources holding at least one approved occurrence overlapping today.
	occupiedToday := make(map[string]bool)
	for _, occ := range active {
		switch booking.Status(occ.Status) {
		case booking.StatusPending:
			stats.PendingApprovals++
		case booking.StatusApproved:
			if occ.End.After(now) {
				stats.ActiveBookings++
			}
			if occ.Start.Before(dayEnd) && dayStart.Before(occ.End) {
				occupiedToday[occ.ResourceID] = true
			}
		}
	}

	if stats.AvailableResources > 0 {
		stats.UtilizationRate = float64(len(occupiedToday)) / float64(stats.AvailableResources)
		if stats.UtilizationRate > 1 {
			stats.UtilizationRate = 1
		}
	}

	s.cache.Store(stats)
	return stats, nil
}

// Invalidate drops the cached snapshot. Booking and resource mutations call
// this so the next dashboard read reflects them.
func (s *DashboardService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}
