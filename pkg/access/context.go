// Package access decides whether a request may act on a tenant's module
// instance and whether an entity belongs to that tenant.
package access

import (
	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Scope says which kind of route produced an AuthContext.
type Scope string

const (
	ScopeAdmin  Scope = "admin"
	ScopePublic Scope = "public"
)

// AuthContext is the resolved tenant, module instance and caller of one
// request. It is built by the Guard and passed explicitly to handlers.
type AuthContext struct {
	Tenant    domain.Tenant
	Instance  domain.ModuleInstance
	Principal *domain.Principal
	Roles     domain.RoleSet
	Scope     Scope
}

// Authenticated reports whether a principal was verified for the request.
func (c *AuthContext) Authenticated() bool {
	return c.Principal != nil
}

// Owned is implemented by every tenant-owned entity.
type Owned interface {
	OwnerTenantID() uuid.UUID
}

// InstanceOwned is implemented by entities that also belong to one module
// instance of their tenant.
type InstanceOwned interface {
	Owned
	OwnerInstanceID() uuid.UUID
}

// OwnsEntity reports whether e belongs to the context's tenant.
func OwnsEntity(c *AuthContext, e Owned) bool {
	if c == nil || e == nil {
		return false
	}
	return e.OwnerTenantID() == c.Tenant.ID
}

// Authorize returns nil when the context's tenant owns e and, for an
// InstanceOwned entity, when it belongs to the context's module instance.
// Otherwise admin callers get domain.ErrForbidden and public callers
// domain.ErrNotFound.
func (c *AuthContext) Authorize(e Owned) error {
	if OwnsEntity(c, e) && c.sameInstance(e) {
		return nil
	}
	if c != nil && c.Scope == ScopeAdmin {
		return domain.ErrForbidden
	}
	return domain.ErrNotFound
}

func (c *AuthContext) sameInstance(e Owned) bool {
	scoped, ok := e.(InstanceOwned)
	return !ok || scoped.OwnerInstanceID() == c.Instance.ID
}
