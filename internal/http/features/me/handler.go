package me

import (
	"log/slog"
	"net/http"

	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Handler handles endpoints about the calling principal.
type Handler struct {
	logger     *slog.Logger
	principals *auth.PrincipalService
	verifier   *auth.CredentialVerifier
}

// NewHandler creates a new me handler.
func NewHandler(logger *slog.Logger, principals *auth.PrincipalService, verifier *auth.CredentialVerifier) *Handler {
	return &Handler{
		logger:     logger,
		principals: principals,
		verifier:   verifier,
	}
}

// MembershipResponse is one tenant role held by the caller.
type MembershipResponse struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// PrincipalResponse represents the caller's profile.
type PrincipalResponse struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	Name        string               `json:"name,omitempty"`
	SuperAdmin  bool                 `json:"super_admin"`
	Memberships []MembershipResponse `json:"memberships"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GetMe returns the caller's profile and active memberships.
// GET /v1/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	memberships := make([]MembershipResponse, 0, len(identity.Memberships))
	for _, m := range identity.Memberships {
		if !m.IsActive() {
			continue
		}
		memberships = append(memberships, MembershipResponse{TenantID: m.TenantID.String(), Role: string(m.Role)})
	}

	p := identity.Principal
	httputil.JSON(w, http.StatusOK, PrincipalResponse{
		ID:          p.ID.String(),
		Email:       p.Email,
		Name:        p.Name,
		SuperAdmin:  p.SuperAdmin,
		Memberships: memberships,
	})
}

// ChangePassword replaces the caller's password after checking the current one.
// PUT /v1/me/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req ChangePasswordRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if err := httputil.Required(map[string]string{"current_password": req.CurrentPassword, "new_password": req.NewPassword}); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if !h.verifier.Verify(req.CurrentPassword, identity.Principal.PasswordHash) {
		httputil.WriteError(w, h.logger, domain.NewError(domain.KindValidation, "current password is incorrect"))
		return
	}

	if err := h.principals.ChangePassword(r.Context(), identity.Principal.ID, req.NewPassword); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("password changed", "principal_id", identity.Principal.ID)
	w.WriteHeader(http.StatusNoContent)
}
