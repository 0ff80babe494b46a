package access

import (
	"context"
	"log/slog"

	"github.com/tendant/tenantgate/internal/metrics"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

// IdentityResolver verifies a bearer token.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Identity, error)
}

// ModuleDirectory resolves module instances.
type ModuleDirectory interface {
	Resolve(ctx context.Context, l tenancy.Lookup) (*domain.ModuleBinding, error)
	ResolveKind(ctx context.Context, l tenancy.Lookup, kind domain.ModuleKind) (*domain.ModuleBinding, error)
}

// Options tunes guard policy.
type Options struct {
	// SuperAdminBypass lets a super-admin principal act in every tenant as
	// if it held SUPER_ADMIN there.
	SuperAdminBypass bool
}

// Guard builds AuthContexts for admin and public routes.
type Guard struct {
	identities IdentityResolver
	directory  ModuleDirectory
	opts       Options
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewGuard creates a new guard.
func NewGuard(identities IdentityResolver, directory ModuleDirectory, opts Options, m *metrics.Metrics, logger *slog.Logger) *Guard {
	return &Guard{
		identities: identities,
		directory:  directory,
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

// AuthenticateModule authorizes an admin request for the module instance
// named by moduleKey. Checks run in order: the token must name an active
// principal (Unauthenticated), the instance must resolve (NotFound), the
// principal must hold a membership in the owning tenant (Forbidden) and,
// when required is not empty, one of the required roles (Forbidden).
func (g *Guard) AuthenticateModule(ctx context.Context, moduleKey, token string, required ...domain.Role) (*AuthContext, error) {
	identity, err := g.identities.Resolve(ctx, token)
	if err != nil {
		return nil, g.deny(ScopeAdmin, err, "module_key", moduleKey)
	}

	binding, err := g.directory.Resolve(ctx, tenancy.Lookup{Key: moduleKey})
	if err != nil {
		return nil, g.deny(ScopeAdmin, err, "module_key", moduleKey, "principal_id", identity.Principal.ID)
	}

	roles := identity.RolesIn(binding.Tenant.ID)
	if g.opts.SuperAdminBypass && identity.Principal.SuperAdmin {
		roles.Add(domain.RoleSuperAdmin)
	}

	if len(roles) == 0 {
		return nil, g.deny(ScopeAdmin, domain.ErrForbidden,
			"reason", "no_membership", "module_key", moduleKey, "principal_id", identity.Principal.ID)
	}
	if !roles.Has(domain.RoleSuperAdmin) && !roles.HasAny(required...) {
		return nil, g.deny(ScopeAdmin, domain.ErrForbidden,
			"reason", "missing_role", "module_key", moduleKey, "principal_id", identity.Principal.ID)
	}

	g.metrics.ObserveAccessDecision(string(ScopeAdmin), "allowed")
	return &AuthContext{
		Tenant:    binding.Tenant,
		Instance:  binding.Instance,
		Principal: identity.Principal,
		Roles:     roles,
		Scope:     ScopeAdmin,
	}, nil
}

// CheckAuthentication resolves a public request. No principal is needed.
func (g *Guard) CheckAuthentication(ctx context.Context, l tenancy.Lookup) (*AuthContext, error) {
	binding, err := g.directory.Resolve(ctx, l)
	return g.public(binding, err, l)
}

// CheckModuleKind resolves a public request and switches to the same
// tenant's instance of kind.
func (g *Guard) CheckModuleKind(ctx context.Context, l tenancy.Lookup, kind domain.ModuleKind) (*AuthContext, error) {
	binding, err := g.directory.ResolveKind(ctx, l, kind)
	return g.public(binding, err, l)
}

func (g *Guard) public(binding *domain.ModuleBinding, err error, l tenancy.Lookup) (*AuthContext, error) {
	if err != nil {
		return nil, g.deny(ScopePublic, err, "host", l.Host, "module_key", l.Key)
	}
	g.metrics.ObserveAccessDecision(string(ScopePublic), "allowed")
	return &AuthContext{
		Tenant:   binding.Tenant,
		Instance: binding.Instance,
		Roles:    domain.NewRoleSet(),
		Scope:    ScopePublic,
	}, nil
}

func (g *Guard) deny(scope Scope, err error, attrs ...any) error {
	kind := domain.KindOf(err)
	g.metrics.ObserveAccessDecision(string(scope), string(kind))
	if kind == domain.KindInternal {
		g.logger.Error("access check failed", append(attrs, "scope", scope, "error", err)...)
	} else {
		g.logger.Warn("access denied", append(attrs, "scope", scope, "outcome", kind)...)
	}
	return err
}
