package application

import (
	"context"
	"errors"
	"testing"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

func testResource(id, status string) persistence.Resource {
	return persistence.Resource{
		ID:        id,
		Name:      "Lab " + id,
		Type:      "lab",
		Location:  "Science Block",
		Capacity:  30,
		Status:    status,
		CreatedAt: testClock,
		UpdatedAt: testClock,
	}
}

func TestResourceService_CreateResource(t *testing.T) {
	t.Run("requires administrator role", func(t *testing.T) {
		svc := NewResourceService(newFakeResourceRepo(), nil, fixedClock(), nil)

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: studentPrincipal,
			Input:     ResourceInput{Name: "Lab", Type: "lab", Location: "Block A", Capacity: 10},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates catalog vocabulary", func(t *testing.T) {
		svc := NewResourceService(newFakeResourceRepo(), nil, fixedClock(), nil)

		_, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: adminPrincipal,
			Input:     ResourceInput{Name: "", Type: "starship", Location: "", Capacity: 0, Status: "lost"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "type", "location", "capacity", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("defaults to available and trims features", func(t *testing.T) {
		repo := newFakeResourceRepo()
		svc := NewResourceService(repo, testIDGenerator("res"), fixedClock(), nil)

		created, err := svc.CreateResource(context.Background(), CreateResourceParams{
			Principal: adminPrincipal,
			Input: ResourceInput{
				Name:     " Chemistry Lab ",
				Type:     "LAB",
				Location: "Science Block",
				Capacity: 24,
				Features: []string{" fume hood ", "", "sink"},
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if created.Status != "available" {
			t.Fatalf("expected default status available, got %q", created.Status)
		}
		if created.Name != "Chemistry Lab" || created.Type != "lab" {
			t.Fatalf("expected normalized fields, got %+v", created)
		}
		if len(created.Features) != 2 || created.Features[0] != "fume hood" {
			t.Fatalf("unexpected features: %v", created.Features)
		}
	})
}

func TestResourceService_UpdateResource(t *testing.T) {
	t.Run("reports missing resources", func(t *testing.T) {
		svc := NewResourceService(newFakeResourceRepo(), nil, fixedClock(), nil)

		_, err := svc.UpdateResource(context.Background(), UpdateResourceParams{
			Principal:  adminPrincipal,
			ResourceID: "missing",
			Input:      ResourceInput{Name: "X", Type: "room", Location: "Y", Capacity: 5},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("applies status changes", func(t *testing.T) {
		repo := newFakeResourceRepo(testResource("res-1", "available"))
		svc := NewResourceService(repo, nil, fixedClock(), nil)

		updated, err := svc.UpdateResource(context.Background(), UpdateResourceParams{
			Principal:  adminPrincipal,
			ResourceID: "res-1",
			Input: ResourceInput{
				Name: "Lab res-1", Type: "lab", Location: "Science Block",
				Capacity: 30, Status: "maintenance",
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.Status != "maintenance" {
			t.Fatalf("expected maintenance status, got %q", updated.Status)
		}
	})
}

func TestResourceService_ResourceBookable(t *testing.T) {
	repo := newFakeResourceRepo(
		testResource("res-open", "available"),
		testResource("res-down", "maintenance"),
	)
	svc := NewResourceService(repo, nil, fixedClock(), nil)

	t.Run("available resource is bookable", func(t *testing.T) {
		if err := svc.ResourceBookable(context.Background(), "res-open"); err != nil {
			t.Fatalf("expected bookable, got %v", err)
		}
	})

	t.Run("maintenance resource is not bookable", func(t *testing.T) {
		err := svc.ResourceBookable(context.Background(), "res-down")
		if !errors.Is(err, booking.ErrResourceNotBookable) {
			t.Fatalf("expected ErrResourceNotBookable, got %v", err)
		}
	})

	t.Run("missing resource reports not found", func(t *testing.T) {
		err := svc.ResourceBookable(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestResourceService_DeleteResource(t *testing.T) {
	repo := newFakeResourceRepo(testResource("res-1", "available"))
	svc := NewResourceService(repo, nil, fixedClock(), nil)

	if err := svc.DeleteResource(context.Background(), studentPrincipal, "res-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteResource(context.Background(), adminPrincipal, "res-1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := svc.DeleteResource(context.Background(), adminPrincipal, "res-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
