package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/internal/metrics"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     *domain.Token
	Principal *domain.Principal
	Roles     domain.RoleSet
}

// AuthenticationService exchanges credentials for an access token.
type AuthenticationService struct {
	principals  repository.PrincipalStore
	memberships repository.MembershipStore
	verifier    *CredentialVerifier
	tokens      *TokenService
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// dummyHash is compared against for unknown emails so that every
	// failed login costs one bcrypt comparison.
	dummyHash string
}

// NewAuthenticationService creates a new authentication service.
func NewAuthenticationService(principals repository.PrincipalStore, memberships repository.MembershipStore, verifier *CredentialVerifier, tokens *TokenService, m *metrics.Metrics, logger *slog.Logger) (*AuthenticationService, error) {
	dummy, err := verifier.Encode(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &AuthenticationService{
		principals:  principals,
		memberships: memberships,
		verifier:    verifier,
		tokens:      tokens,
		metrics:     m,
		logger:      logger,
		dummyHash:   dummy,
	}, nil
}

// Login verifies email and password and issues a token. Unknown email,
// wrong password and disabled or deactivated principals all yield
// domain.ErrAuthenticationFailed. Login never modifies the stored hash.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	principal, err := s.principals.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			s.logger.Error("login lookup failed", "error", err)
			s.metrics.ObserveLogin("error")
			return nil, domain.WrapError(err, domain.KindInternal, "login failed")
		}
		s.verifier.Verify(password, s.dummyHash)
		return nil, s.fail("unknown_principal")
	}

	if !s.verifier.Verify(password, principal.PasswordHash) {
		return nil, s.fail("bad_credentials")
	}

	if !principal.CanAuthenticate() {
		return nil, s.fail("inactive_principal")
	}

	memberships, err := s.memberships.ListByPrincipal(ctx, principal.ID)
	if err != nil {
		s.logger.Error("login membership lookup failed", "principal_id", principal.ID, "error", err)
		s.metrics.ObserveLogin("error")
		return nil, domain.WrapError(err, domain.KindInternal, "login failed")
	}

	roles := domain.NewRoleSet()
	for _, m := range memberships {
		if m.IsActive() {
			roles.Add(m.Role)
		}
	}
	if principal.SuperAdmin {
		roles.Add(domain.RoleSuperAdmin)
	}

	token, err := s.tokens.Issue(principal, roles)
	if err != nil {
		s.metrics.ObserveLogin("error")
		return nil, err
	}

	s.metrics.ObserveLogin("succeeded")
	s.logger.Info("login succeeded", "principal_id", principal.ID)
	return &LoginResult{Token: token, Principal: principal, Roles: roles}, nil
}

// Logout acknowledges a logout request. Tokens are stateless and remain
// valid until they expire.
func (s *AuthenticationService) Logout(ctx context.Context) error {
	return nil
}

func (s *AuthenticationService) fail(reason string) error {
	s.metrics.ObserveLogin("failed")
	s.logger.Info("login failed", "reason", reason)
	return domain.ErrAuthenticationFailed
}
