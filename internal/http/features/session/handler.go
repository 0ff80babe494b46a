package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/auth"
)

// Handler handles session endpoints.
type Handler struct {
	authService *auth.AuthenticationService
	logger      *slog.Logger
}

// NewHandler creates a new session handler.
func NewHandler(authService *auth.AuthenticationService, logger *slog.Logger) *Handler {
	return &Handler{
		authService: authService,
		logger:      logger,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	SuperAdmin  bool      `json:"super_admin"`
	Roles       []string  `json:"roles"`
}

// Login exchanges email and password for a bearer token.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	if err := httputil.Required(map[string]string{"email": req.Email, "password": req.Password}); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.Token.AccessToken,
		TokenType:   result.Token.TokenType,
		ExpiresIn:   result.Token.ExpiresIn,
		ExpiresAt:   result.Token.ExpiresAt,
		SuperAdmin:  result.Principal.SuperAdmin,
		Roles:       result.Roles.Labels(),
	})
}

// Logout acknowledges a logout. Tokens are stateless, so the presented
// token remains valid until it expires; clients must discard it.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context()); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
