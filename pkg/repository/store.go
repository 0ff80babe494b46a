package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// TenantStore persists tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	List(ctx context.Context) ([]*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
}

// ModuleInstanceStore persists module instances.
type ModuleInstanceStore interface {
	Create(ctx context.Context, instance *domain.ModuleInstance) error
	GetByKey(ctx context.Context, key string) (*domain.ModuleInstance, error)
	// ListByHost returns every instance bound to host, archived or not.
	ListByHost(ctx context.Context, host string) ([]*domain.ModuleInstance, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.ModuleInstance, error)
	Update(ctx context.Context, instance *domain.ModuleInstance) error
}

// PrincipalStore persists principals.
type PrincipalStore interface {
	Create(ctx context.Context, principal *domain.Principal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Principal, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, principal *domain.Principal) error
}

// MembershipStore persists tenant role memberships.
type MembershipStore interface {
	Create(ctx context.Context, membership *domain.Membership) error
	ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*domain.Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error)
	SoftDelete(ctx context.Context, tenantID, principalID uuid.UUID, role domain.Role) error
}

// FacilityFilter narrows a facility listing.
type FacilityFilter struct {
	ModuleInstanceID *uuid.UUID
	PublishedOnly    bool
	IncludeArchived  bool
}

// FacilityStore persists facilities.
type FacilityStore interface {
	Create(ctx context.Context, facility *domain.Facility) error
	GetByKey(ctx context.Context, key string) (*domain.Facility, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, filter FacilityFilter) ([]*domain.Facility, error)
	Update(ctx context.Context, facility *domain.Facility) error
}

// MenuStore persists website menu entries.
type MenuStore interface {
	// Create fails with domain.ErrAlreadyExists when the instance already
	// has an entry of the same menu type.
	Create(ctx context.Context, menu *domain.Menu) error
	GetByKey(ctx context.Context, key string) (*domain.Menu, error)
	// ListByInstance returns an instance's entries ordered by position.
	ListByInstance(ctx context.Context, moduleInstanceID uuid.UUID) ([]*domain.Menu, error)
	Update(ctx context.Context, menu *domain.Menu) error
}

// Stores bundles every store the application needs.
type Stores struct {
	Tenants     TenantStore
	Modules     ModuleInstanceStore
	Principals  PrincipalStore
	Memberships MembershipStore
	Facilities  FacilityStore
	Menus       MenuStore
}
