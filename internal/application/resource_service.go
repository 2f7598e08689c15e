package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/booking"
	"github.com/channasilva/crms-server/internal/persistence"
)

// Resource catalog vocabulary. A resource outside these sets is rejected at
// validation time; the schema enforces the same sets with CHECK constraints.
var (
	resourceTypes    = map[string]bool{"room": true, "lab": true, "equipment": true, "vehicle": true}
	resourceStatuses = map[string]bool{"available": true, "booked": true, "maintenance": true, "unavailable": true}
)

// ResourceService orchestrates validation, authorization, and persistence for
// the resource catalog. It also answers bookability checks for the scheduler.
type ResourceService struct {
	resources   persistence.ResourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResourceService constructs a resource service with the provided dependencies.
func NewResourceService(resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{resources: resources, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource validates input and persists a new catalog entry for administrators.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeResourceInput(params.Input)
	if vErr := validateResourceInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	resource = persistence.Resource{
		ID:          s.idGenerator(),
		Name:        normalized.Name,
		Type:        normalized.Type,
		Location:    normalized.Location,
		Capacity:    normalized.Capacity,
		Status:      normalized.Status,
		Description: normalized.Description,
		Features:    normalized.Features,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.resources.CreateResource(ctx, resource); err != nil {
		err = mapResourceRepoError(err)
		resource = persistence.Resource{}
		return
	}
	return
}

// UpdateResource validates input and updates an existing catalog entry for administrators.
func (s *ResourceService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	var existing persistence.Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	normalized := normalizeResourceInput(params.Input)
	if vErr := validateResourceInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Type = normalized.Type
	updated.Location = normalized.Location
	updated.Capacity = normalized.Capacity
	updated.Status = normalized.Status
	updated.Description = normalized.Description
	updated.Features = normalized.Features
	updated.UpdatedAt = s.now()

	if err = s.resources.UpdateResource(ctx, updated); err != nil {
		err = mapResourceRepoError(err)
		return
	}
	resource = updated
	return
}

// DeleteResource removes a catalog entry when requested by an administrator.
func (s *ResourceService) DeleteResource(ctx context.Context, principal Principal, resourceID string) error {
	if s == nil {
		return fmt.Errorf("ResourceService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteResource",
		"principal_id", principal.UserID,
		"resource_id", resourceID,
	)

	if err := s.resources.DeleteResource(ctx, resourceID); err != nil {
		err = mapResourceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete resource", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "resource deleted")
	return nil
}

// GetResource returns one catalog entry for any authenticated user.
func (s *ResourceService) GetResource(ctx context.Context, resourceID string) (persistence.Resource, error) {
	if s == nil {
		return persistence.Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return persistence.Resource{}, fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return persistence.Resource{}, mapResourceRepoError(err)
	}
	return resource, nil
}

// ListResources returns the catalog for any authenticated user, ordered by name.
func (s *ResourceService) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return nil, nil
	}

	raw, err := s.resources.ListResources(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]persistence.Resource, len(raw))
	copy(resources, raw)

	sort.Slice(resources, func(i, j int) bool {
		if strings.EqualFold(resources[i].Name, resources[j].Name) {
			return resources[i].ID < resources[j].ID
		}
		return strings.ToLower(resources[i].Name) < strings.ToLower(resources[j].Name)
	})

	return resources, nil
}

// ResourceBookable reports whether the resource may accept new bookings.
// Only resources in status "available" are bookable; maintenance and other
// states refuse submissions before any conflict check runs.
func (s *ResourceService) ResourceBookable(ctx context.Context, resourceID string) error {
	if s == nil || s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return mapResourceRepoError(err)
	}
	if resource.Status != "available" {
		return fmt.Errorf("%w: resource %s is %s", booking.ErrResourceNotBookable, resource.ID, resource.Status)
	}
	return nil
}

func normalizeResourceInput(input ResourceInput) ResourceInput {
	features := make([]string, 0, len(input.Features))
	for _, f := range input.Features {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = "available"
	}
	return ResourceInput{
		Name:        strings.TrimSpace(input.Name),
		Type:        strings.ToLower(strings.TrimSpace(input.Type)),
		Location:    strings.TrimSpace(input.Location),
		Capacity:    input.Capacity,
		Status:      status,
		Description: normalizeOptionalString(input.Description),
		Features:    features,
	}
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if !resourceTypes[input.Type] {
		vErr.add("type", "type must be room, lab, equipment, or vehicle")
	}
	if input.Location == "" {
		vErr.add("location", "location is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if !resourceStatuses[input.Status] {
		vErr.add("status", "status must be available, booked, maintenance, or unavailable")
	}

	return vErr
}

func mapResourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
