// Package tenants serves the super-admin provisioning endpoints for
// tenants, module instances, principals and memberships.
package tenants

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/tenantgate/internal/http/features/common"
	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

// Handler handles provisioning endpoints.
type Handler struct {
	provisioner *tenancy.Provisioner
	principals  *auth.PrincipalService
	logger      *slog.Logger
}

// NewHandler creates a new provisioning handler.
func NewHandler(provisioner *tenancy.Provisioner, principals *auth.PrincipalService, logger *slog.Logger) *Handler {
	return &Handler{
		provisioner: provisioner,
		principals:  principals,
		logger:      logger,
	}
}

// TenantResponse represents a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Archived  bool      `json:"archived"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TreeResponse is a tenant with its subsidiaries.
type TreeResponse struct {
	TenantResponse
	Children []TreeResponse `json:"children"`
}

// ModuleResponse represents a module instance.
type ModuleResponse struct {
	Key      string  `json:"key"`
	TenantID string  `json:"tenant_id"`
	Kind     string  `json:"kind"`
	Host     *string `json:"host,omitempty"`
	Live     bool    `json:"live"`
	Archived bool    `json:"archived"`
	Master   bool    `json:"master"`
}

// MenuResponse is a menu entry with its sub-entries.
type MenuResponse struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	MenuType  string         `json:"menu_type"`
	Route     string         `json:"route"`
	Public    bool           `json:"public"`
	Position  int            `json:"position"`
	ParentKey string         `json:"parent_key,omitempty"`
	Children  []MenuResponse `json:"children,omitempty"`
}

// MemberResponse represents a membership.
type MemberResponse struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// PrincipalResponse represents a principal.
type PrincipalResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Enabled     bool   `json:"enabled"`
	Deactivated bool   `json:"deactivated"`
	SuperAdmin  bool   `json:"super_admin"`
}

// CreateTenantRequest represents a tenant creation request.
type CreateTenantRequest struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	ParentID *string `json:"parent_id,omitempty"`
}

// UpdateTenantRequest changes a tenant's state or parent. A parent_id of ""
// moves the tenant to the top level.
type UpdateTenantRequest struct {
	Active   *bool   `json:"active,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// AddModuleRequest represents a module instance creation request.
type AddModuleRequest struct {
	Kind   string  `json:"kind"`
	Host   *string `json:"host,omitempty"`
	Master bool    `json:"master"`
	Live   bool    `json:"live"`
}

// UpdateModuleRequest changes a module instance's live flag.
type UpdateModuleRequest struct {
	Live *bool `json:"live"`
}

// SetMenuParentRequest nests a menu entry. A parent_key of "" moves the
// entry to the top level.
type SetMenuParentRequest struct {
	ParentKey *string `json:"parent_key"`
}

// CreatePrincipalRequest represents a principal registration request.
type CreatePrincipalRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	SuperAdmin bool   `json:"super_admin"`
}

// UpdatePrincipalRequest changes whether a principal may sign in.
type UpdatePrincipalRequest struct {
	Enabled     *bool `json:"enabled,omitempty"`
	Deactivated bool  `json:"deactivated,omitempty"`
}

// GrantRoleRequest represents a role grant.
type GrantRoleRequest struct {
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
}

// CreateTenant creates a tenant.
// POST /v1/admin/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	parentID, err := common.ParseOptionalUUID("parent_id", req.ParentID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	tenant, err := h.provisioner.CreateTenant(r.Context(), tenancy.CreateTenantInput{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: parentID,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "tenant created", "tenant_id", tenant.ID)
	httputil.JSON(w, http.StatusCreated, toTenantResponse(tenant))
}

// GetTenant returns a tenant.
// GET /v1/admin/tenants/{tenantID}
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	tenant, err := h.provisioner.GetTenant(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toTenantResponse(tenant))
}

// UpdateTenant changes a tenant's active flag or parent.
// PATCH /v1/admin/tenants/{tenantID}
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	var req UpdateTenantRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	tenant, err := h.provisioner.GetTenant(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if req.ParentID != nil {
		parentID, err := common.ParseOptionalUUID("parent_id", req.ParentID)
		if err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
		if tenant, err = h.provisioner.SetParent(r.Context(), id, parentID); err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
	}
	if req.Active != nil {
		if tenant, err = h.provisioner.SetTenantActive(r.Context(), id, *req.Active); err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
	}

	h.audit(r, "tenant updated", "tenant_id", id)
	httputil.JSON(w, http.StatusOK, toTenantResponse(tenant))
}

// ArchiveTenant archives a tenant.
// POST /v1/admin/tenants/{tenantID}/archive
func (h *Handler) ArchiveTenant(w http.ResponseWriter, r *http.Request) {
	h.tenantTransition(w, r, "tenant archived", h.provisioner.ArchiveTenant)
}

// RestoreTenant restores an archived tenant when archiving is reversible.
// POST /v1/admin/tenants/{tenantID}/restore
func (h *Handler) RestoreTenant(w http.ResponseWriter, r *http.Request) {
	h.tenantTransition(w, r, "tenant restored", h.provisioner.RestoreTenant)
}

// Tree returns a tenant and its subsidiaries.
// GET /v1/admin/tenants/{tenantID}/tree
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	root, err := h.provisioner.Tree(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toTreeResponse(root))
}

// ListModules lists a tenant's module instances.
// GET /v1/admin/tenants/{tenantID}/modules
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	instances, err := h.provisioner.ListModuleInstances(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out := make([]ModuleResponse, 0, len(instances))
	for _, m := range instances {
		out = append(out, toModuleResponse(m))
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"modules": out})
}

// AddModule enables a module kind for a tenant.
// POST /v1/admin/tenants/{tenantID}/modules
func (h *Handler) AddModule(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	var req AddModuleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	instance, err := h.provisioner.AddModuleInstance(r.Context(), tenancy.AddModuleInput{
		TenantID: id,
		Kind:     domain.ModuleKind(req.Kind),
		Host:     req.Host,
		Master:   req.Master,
		Live:     req.Live,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "module instance added", "tenant_id", id, "module_key", instance.Key)
	httputil.JSON(w, http.StatusCreated, toModuleResponse(instance))
}

// UpdateModule moves a module instance between live and not-live.
// PATCH /v1/admin/module-instances/{moduleKey}
func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var req UpdateModuleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if req.Live == nil {
		httputil.WriteError(w, h.logger, domain.NewError(domain.KindValidation, "live is required"))
		return
	}

	key := chi.URLParam(r, middleware.ModuleKeyParam)
	instance, err := h.provisioner.SetInstanceLive(r.Context(), key, *req.Live)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "module instance updated", "module_key", key, "live", *req.Live)
	httputil.JSON(w, http.StatusOK, toModuleResponse(instance))
}

// ArchiveModule archives a module instance.
// POST /v1/admin/module-instances/{moduleKey}/archive
func (h *Handler) ArchiveModule(w http.ResponseWriter, r *http.Request) {
	h.moduleTransition(w, r, "module instance archived", h.provisioner.ArchiveInstance)
}

// RestoreModule restores an archived module instance when archiving is
// reversible.
// POST /v1/admin/module-instances/{moduleKey}/restore
func (h *Handler) RestoreModule(w http.ResponseWriter, r *http.Request) {
	h.moduleTransition(w, r, "module instance restored", h.provisioner.RestoreInstance)
}

// Menus returns a module instance's navigation tree.
// GET /v1/admin/module-instances/{moduleKey}/menus
func (h *Handler) Menus(w http.ResponseWriter, r *http.Request) {
	roots, err := h.provisioner.MenuTree(r.Context(), chi.URLParam(r, middleware.ModuleKeyParam))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"menus": toMenuResponses(roots, "")})
}

// SetMenuParent moves a menu entry within its instance's tree.
// PATCH /v1/admin/module-instances/{moduleKey}/menus/{menuKey}
func (h *Handler) SetMenuParent(w http.ResponseWriter, r *http.Request) {
	var req SetMenuParentRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if req.ParentKey == nil {
		httputil.WriteError(w, h.logger, domain.NewError(domain.KindValidation, "parent_key is required"))
		return
	}
	parentKey := req.ParentKey
	if *parentKey == "" {
		parentKey = nil
	}

	moduleKey := chi.URLParam(r, middleware.ModuleKeyParam)
	menuKey := chi.URLParam(r, "menuKey")
	menu, err := h.provisioner.SetMenuParent(r.Context(), moduleKey, menuKey, parentKey)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "menu moved", "module_key", moduleKey, "menu_key", menuKey)
	resp := MenuResponse{
		Key:      menu.Key,
		Name:     menu.Name,
		MenuType: menu.MenuType,
		Route:    menu.Route,
		Public:   menu.Public,
		Position: menu.Position,
	}
	if parentKey != nil {
		resp.ParentKey = *parentKey
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// CreatePrincipal registers a principal.
// POST /v1/admin/principals
func (h *Handler) CreatePrincipal(w http.ResponseWriter, r *http.Request) {
	var req CreatePrincipalRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	principal, err := h.principals.Register(r.Context(), auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		SuperAdmin: req.SuperAdmin,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "principal created", "created_principal_id", principal.ID)
	httputil.JSON(w, http.StatusCreated, toPrincipalResponse(principal))
}

// UpdatePrincipal enables, disables or deactivates a principal.
// PATCH /v1/admin/principals/{principalID}
func (h *Handler) UpdatePrincipal(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "principalID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	var req UpdatePrincipalRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if req.Enabled != nil {
		if err := h.principals.SetEnabled(r.Context(), id, *req.Enabled); err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
	}
	if req.Deactivated {
		if err := h.principals.Deactivate(r.Context(), id); err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
	}

	principal, err := h.principals.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "principal updated", "target_principal_id", id)
	httputil.JSON(w, http.StatusOK, toPrincipalResponse(principal))
}

// ListMembers lists a tenant's memberships.
// GET /v1/admin/tenants/{tenantID}/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	memberships, err := h.provisioner.ListMembers(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out := make([]MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, MemberResponse{PrincipalID: m.PrincipalID.String(), Role: string(m.Role), Status: string(m.Status)})
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"members": out})
}

// GrantRole gives a principal a role in a tenant.
// POST /v1/admin/tenants/{tenantID}/members
func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	tenantID, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	var req GrantRoleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	principalID, err := common.ParseOptionalUUID("principal_id", &req.PrincipalID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if principalID == nil {
		httputil.WriteError(w, h.logger, domain.NewError(domain.KindValidation, "principal_id is required"))
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	m, err := h.provisioner.GrantRole(r.Context(), tenantID, *principalID, role)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "role granted", "tenant_id", tenantID, "target_principal_id", *principalID, "role", role)
	httputil.JSON(w, http.StatusCreated, MemberResponse{PrincipalID: m.PrincipalID.String(), Role: string(m.Role), Status: string(m.Status)})
}

// RevokeRole removes a principal's role in a tenant.
// DELETE /v1/admin/tenants/{tenantID}/members/{principalID}/{role}
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	tenantID, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	principalID, err := common.UUIDParam(r, "principalID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	role, err := parseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if err := h.provisioner.RevokeRole(r.Context(), tenantID, principalID, role); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.audit(r, "role revoked", "tenant_id", tenantID, "target_principal_id", principalID, "role", role)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tenantTransition(w http.ResponseWriter, r *http.Request, event string, apply func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)) {
	id, err := common.UUIDParam(r, "tenantID")
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	tenant, err := apply(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	h.audit(r, event, "tenant_id", id)
	httputil.JSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) moduleTransition(w http.ResponseWriter, r *http.Request, event string, apply func(ctx context.Context, key string) (*domain.ModuleInstance, error)) {
	key := chi.URLParam(r, middleware.ModuleKeyParam)
	instance, err := apply(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	h.audit(r, event, "module_key", key)
	httputil.JSON(w, http.StatusOK, toModuleResponse(instance))
}

// audit logs a provisioning change with the acting principal.
func (h *Handler) audit(r *http.Request, event string, attrs ...any) {
	if identity, ok := middleware.IdentityFrom(r.Context()); ok {
		attrs = append(attrs, "principal_id", identity.Principal.ID)
	}
	h.logger.Info(event, attrs...)
}

func parseRole(s string) (domain.Role, error) {
	role, err := domain.ParseRole(s)
	if err != nil {
		return "", domain.WrapError(err, domain.KindValidation, "unknown role")
	}
	return role, nil
}

func toTenantResponse(t *domain.Tenant) TenantResponse {
	resp := TenantResponse{
		ID:        t.ID.String(),
		Key:       t.Key,
		Slug:      t.Slug,
		Name:      t.Name,
		Active:    t.Active,
		Archived:  t.Archived,
		CreatedAt: t.CreatedAt,
	}
	if t.ParentID != nil {
		parent := t.ParentID.String()
		resp.ParentID = &parent
	}
	return resp
}

func toTreeResponse(n *tenancy.TenantNode) TreeResponse {
	children := make([]TreeResponse, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, toTreeResponse(c))
	}
	return TreeResponse{TenantResponse: toTenantResponse(n.Tenant), Children: children}
}

func toModuleResponse(m *domain.ModuleInstance) ModuleResponse {
	return ModuleResponse{
		Key:      m.Key,
		TenantID: m.TenantID.String(),
		Kind:     string(m.Kind),
		Host:     m.Host,
		Live:     m.Live,
		Archived: m.Archived,
		Master:   m.Master,
	}
}

func toMenuResponses(nodes []*tenancy.MenuNode, parentKey string) []MenuResponse {
	out := make([]MenuResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, MenuResponse{
			Key:       n.Menu.Key,
			Name:      n.Menu.Name,
			MenuType:  n.Menu.MenuType,
			Route:     n.Menu.Route,
			Public:    n.Menu.Public,
			Position:  n.Menu.Position,
			ParentKey: parentKey,
			Children:  toMenuResponses(n.Children, n.Menu.Key),
		})
	}
	return out
}

func toPrincipalResponse(p *domain.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:          p.ID.String(),
		Email:       p.Email,
		Name:        p.Name,
		Enabled:     p.Enabled,
		Deactivated: p.Deactivated,
		SuperAdmin:  p.SuperAdmin,
	}
}
