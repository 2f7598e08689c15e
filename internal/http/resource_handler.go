package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/channasilva/crms-server/internal/application"
	"github.com/channasilva/crms-server/internal/persistence"
)

type resourceService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (persistence.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (persistence.Resource, error)
	DeleteResource(ctx context.Context, principal application.Principal, resourceID string) error
	GetResource(ctx context.Context, resourceID string) (persistence.Resource, error)
	ListResources(ctx context.Context) ([]persistence.Resource, error)
}

type ResourceHandler struct {
	service   resourceService
	responder responder
	logger    *slog.Logger
}

func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	base := defaultLogger(logger)
	return &ResourceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ResourceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ResourceHandler", operation, attrs...)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("resource_id", resource.ID).InfoContext(r.Context(), "resource created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	logger := h.log(r.Context(), "Get", "resource_id", resourceID)

	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "resource fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode resource update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "resource_id", resourceID)

	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "resource update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resourceResponse{Resource: toResourceDTO(resource)})
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "resource_id", resourceID)

	if err := h.service.DeleteResource(r.Context(), principal, resourceID); err != nil {
		logger.ErrorContext(r.Context(), "resource delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "resource deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	resources, err := h.service.ListResources(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "resource list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(resources)).InfoContext(r.Context(), "resources listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

type resourceRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Status      string   `json:"status,omitempty"`
	Description *string  `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:        strings.TrimSpace(r.Name),
		Type:        strings.TrimSpace(r.Type),
		Location:    strings.TrimSpace(r.Location),
		Capacity:    r.Capacity,
		Status:      strings.TrimSpace(r.Status),
		Description: r.Description,
		Features:    r.Features,
	}
}

type resourceResponse struct {
	Resource resourceDTO `json:"resource"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type resourceDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Status      string   `json:"status"`
	Description *string  `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toResourceDTO(resource persistence.Resource) resourceDTO {
	return resourceDTO{
		ID:          resource.ID,
		Name:        resource.Name,
		Type:        resource.Type,
		Location:    resource.Location,
		Capacity:    resource.Capacity,
		Status:      resource.Status,
		Description: resource.Description,
		Features:    resource.Features,
		CreatedAt:   resource.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   resource.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toResourceDTOs(resources []persistence.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}
