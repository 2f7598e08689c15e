package application

import (
	"context"
	"testing"
	"time"

	"github.com/channasilva/crms-server/internal/persistence"
)

func seedOccurrence(repo *fakeBookingRepo, id, resourceID, status string, start time.Time, duration time.Duration) {
	repo.occurrences[id] = persistence.Occurrence{
		ID:          id,
		GroupID:     "grp-" + id,
		ResourceID:  resourceID,
		RequesterID: "user-1",
		Start:       start,
		End:         start.Add(duration),
		Status:      status,
		CreatedAt:   testClock,
		UpdatedAt:   testClock,
	}
}

func TestDashboardService_Stats(t *testing.T) {
	resources := newFakeResourceRepo(
		testResource("res-1", "available"),
		testResource("res-2", "available"),
		testResource("res-3", "maintenance"),
	)
	bookings := newFakeBookingRepo()

	// One approved occurrence later today on res-1, one pending on res-2,
	// and one already finished approved occurrence yesterday.
	seedOccurrence(bookings, "occ-1", "res-1", "approved", testClock.Add(2*time.Hour), time.Hour)
	seedOccurrence(bookings, "occ-2", "res-2", "pending", testClock.Add(3*time.Hour), time.Hour)
	seedOccurrence(bookings, "occ-3", "res-2", "rejected", testClock.Add(4*time.Hour), time.Hour)

	svc := NewDashboardService(resources, bookings, time.Minute, fixedClock(), nil)

	stats, err := svc.Stats(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if stats.TotalResources != 3 {
		t.Fatalf("expected 3 total resources, got %d", stats.TotalResources)
	}
	if stats.AvailableResources != 2 {
		t.Fatalf("expected 2 available resources, got %d", stats.AvailableResources)
	}
	if stats.PendingApprovals != 1 {
		t.Fatalf("expected 1 pending approval, got %d", stats.PendingApprovals)
	}
	if stats.ActiveBookings != 1 {
		t.Fatalf("expected 1 active booking, got %d", stats.ActiveBookings)
	}
	// res-1 is the only available resource occupied today.
	if got, want := stats.UtilizationRate, 0.5; got != want {
		t.Fatalf("expected utilization %v, got %v", want, got)
	}
}

func TestDashboardService_StatsCaching(t *testing.T) {
	resources := newFakeResourceRepo(testResource("res-1", "available"))
	bookings := newFakeBookingRepo()
	svc := NewDashboardService(resources, bookings, time.Minute, fixedClock(), nil)

	first, err := svc.Stats(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatalf("first stats: %v", err)
	}

	// A mutation after the snapshot is invisible until invalidation.
	seedOccurrence(bookings, "occ-1", "res-1", "pending", testClock.Add(time.Hour), time.Hour)

	cached, err := svc.Stats(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatalf("cached stats: %v", err)
	}
	if cached.PendingApprovals != first.PendingApprovals {
		t.Fatalf("expected cached snapshot, got %+v", cached)
	}

	svc.Invalidate()

	fresh, err := svc.Stats(context.Background(), studentPrincipal)
	if err != nil {
		t.Fatalf("fresh stats: %v", err)
	}
	if fresh.PendingApprovals != 1 {
		t.Fatalf("expected recomputed snapshot after invalidation, got %+v", fresh)
	}
}

func TestStatsCacheExpiry(t *testing.T) {
	current := testClock
	cache := newStatsCache(time.Minute, func() time.Time { return current })

	cache.Store(DashboardStats{TotalResources: 5})
	if _, ok := cache.Get(); !ok {
		t.Fatalf("expected cache hit inside TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get(); ok {
		t.Fatalf("expected cache miss after TTL")
	}
}
