// Package facility serves the education facility endpoints. Every
// single-facility operation checks tenant ownership before reading or
// writing.
package facility

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/access"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// KeyParam is the chi URL parameter holding a facility key.
const KeyParam = "facilityKey"

// Handler handles facility endpoints.
type Handler struct {
	facilities repository.FacilityStore
	logger     *slog.Logger
}

// NewHandler creates a new facility handler.
func NewHandler(facilities repository.FacilityStore, logger *slog.Logger) *Handler {
	return &Handler{
		facilities: facilities,
		logger:     logger,
	}
}

// Response represents a facility.
type Response struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Thumbnail   *string   `json:"thumbnail,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest represents a facility creation request.
type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	Published   bool    `json:"published"`
}

// UpdateRequest represents a partial facility update.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

// AdminList lists the module instance's facilities.
// GET /v1/admin/modules/{moduleKey}/facilities?published=true
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	filter := repository.FacilityFilter{ModuleInstanceID: &ac.Instance.ID}
	if v := r.URL.Query().Get("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteError(w, h.logger, domain.NewError(domain.KindValidation, "published must be true or false"))
			return
		}
		filter.PublishedOnly = published
	}

	h.list(w, r, ac, filter)
}

// AdminGet returns one facility of the caller's tenant.
// GET /v1/admin/modules/{moduleKey}/facilities/{facilityKey}
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	f, err := h.load(r, ac)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toResponse(f))
}

// Create adds a facility owned by the caller's tenant.
// POST /v1/admin/modules/{moduleKey}/facilities
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	name, err := validName(req.Name)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	now := time.Now()
	f := &domain.Facility{
		ID:               uuid.New(),
		Key:              domain.NewKey(),
		TenantID:         ac.Tenant.ID,
		ModuleInstanceID: ac.Instance.ID,
		Name:             name,
		Description:      auth.SanitizeOptional(req.Description),
		Thumbnail:        auth.SanitizeOptional(req.Thumbnail),
		Published:        req.Published,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.facilities.Create(r.Context(), f); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("facility created", "facility_key", f.Key, "tenant_id", ac.Tenant.ID, "principal_id", ac.Principal.ID)
	httputil.JSON(w, http.StatusCreated, toResponse(f))
}

// Update changes the fields present in the request.
// PATCH /v1/admin/modules/{moduleKey}/facilities/{facilityKey}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	f, err := h.load(r, ac)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	var req UpdateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if req.Name != nil {
		name, err := validName(*req.Name)
		if err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
		f.Name = name
	}
	if req.Description != nil {
		f.Description = auth.SanitizeOptional(req.Description)
	}
	if req.Thumbnail != nil {
		f.Thumbnail = auth.SanitizeOptional(req.Thumbnail)
	}
	if req.Published != nil {
		f.Published = *req.Published
	}
	f.UpdatedAt = time.Now()

	if err := h.facilities.Update(r.Context(), f); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toResponse(f))
}

// Delete archives a facility. Archived facilities are never returned again.
// DELETE /v1/admin/modules/{moduleKey}/facilities/{facilityKey}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	f, err := h.load(r, ac)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	f.Archived = true
	f.UpdatedAt = time.Now()
	if err := h.facilities.Update(r.Context(), f); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("facility archived", "facility_key", f.Key, "tenant_id", ac.Tenant.ID, "principal_id", ac.Principal.ID)
	w.WriteHeader(http.StatusNoContent)
}

// PublicList lists published facilities of the resolved module instance.
// GET /v1/public/facilities
// GET /v1/public/modules/{moduleKey}/facilities
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}
	h.list(w, r, ac, repository.FacilityFilter{ModuleInstanceID: &ac.Instance.ID, PublishedOnly: true})
}

// PublicGet returns one published facility. Facilities of other tenants,
// unpublished and archived ones are all reported as not found.
// GET /v1/public/facilities/{facilityKey}
// GET /v1/public/modules/{moduleKey}/facilities/{facilityKey}
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	ac, ok := h.authContext(w, r)
	if !ok {
		return
	}

	f, err := h.load(r, ac)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if !f.Visible() {
		httputil.WriteError(w, h.logger, domain.ErrNotFound)
		return
	}
	httputil.JSON(w, http.StatusOK, toResponse(f))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, ac *access.AuthContext, filter repository.FacilityFilter) {
	facilities, err := h.facilities.ListByTenant(r.Context(), ac.Tenant.ID, filter)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	out := make([]Response, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, toResponse(f))
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"facilities": out})
}

// load fetches the facility named in the URL and checks that it belongs to
// ac's tenant and module instance. Archived facilities are not found.
func (h *Handler) load(r *http.Request, ac *access.AuthContext) (*domain.Facility, error) {
	f, err := h.facilities.GetByKey(r.Context(), chi.URLParam(r, KeyParam))
	if err != nil {
		if errors.Is(err, domain.ErrFacilityNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := ac.Authorize(f); err != nil {
		h.logger.Warn("facility ownership check failed",
			"facility_key", f.Key, "scope", ac.Scope, "tenant_id", ac.Tenant.ID)
		return nil, err
	}
	if f.Archived {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (h *Handler) authContext(w http.ResponseWriter, r *http.Request) (*access.AuthContext, bool) {
	ac, ok := middleware.AuthContextFrom(r.Context())
	if !ok {
		h.logger.Error("facility route mounted without access middleware", "path", r.URL.Path)
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return nil, false
	}
	return ac, true
}

func validName(name string) (string, error) {
	name = auth.SanitizeName(name)
	if err := auth.ValidateStringLength("name", name, 1, 255); err != nil {
		return "", err
	}
	return name, nil
}

func toResponse(f *domain.Facility) Response {
	return Response{
		Key:         f.Key,
		Name:        f.Name,
		Description: f.Description,
		Thumbnail:   f.Thumbnail,
		Published:   f.Published,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
