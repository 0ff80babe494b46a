package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// Identity is a verified caller: the principal named by a valid token
// together with its current memberships.
type Identity struct {
	Principal   *domain.Principal
	Memberships []*domain.Membership
	Claims      *Claims
}

// RolesIn returns the roles the identity holds in tenantID.
func (i *Identity) RolesIn(tenantID uuid.UUID) domain.RoleSet {
	return domain.RolesFor(i.Memberships, tenantID)
}

// PrincipalResolver turns a bearer token into an Identity.
type PrincipalResolver struct {
	tokens      *TokenService
	principals  repository.PrincipalStore
	memberships repository.MembershipStore
	logger      *slog.Logger
}

// NewPrincipalResolver creates a new principal resolver.
func NewPrincipalResolver(tokens *TokenService, principals repository.PrincipalStore, memberships repository.MembershipStore, logger *slog.Logger) *PrincipalResolver {
	return &PrincipalResolver{
		tokens:      tokens,
		principals:  principals,
		memberships: memberships,
		logger:      logger,
	}
}

// Resolve validates token and loads the principal it names. Any token or
// principal problem yields domain.ErrUnauthenticated; store failures are
// reported as internal errors.
func (r *PrincipalResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := r.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	principal, err := r.principals.GetByEmail(ctx, NormalizeEmail(claims.Subject))
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		r.logger.Error("failed to load principal", "error", err)
		return nil, domain.WrapError(err, domain.KindInternal, "could not resolve principal")
	}

	if !principal.CanAuthenticate() {
		r.logger.Warn("token presented for inactive principal", "principal_id", principal.ID)
		return nil, domain.ErrUnauthenticated
	}

	memberships, err := r.memberships.ListByPrincipal(ctx, principal.ID)
	if err != nil {
		r.logger.Error("failed to load memberships", "principal_id", principal.ID, "error", err)
		return nil, domain.WrapError(err, domain.KindInternal, "could not resolve principal")
	}

	return &Identity{
		Principal:   principal,
		Memberships: memberships,
		Claims:      claims,
	}, nil
}
