// Package memstore keeps every record in process memory. It backs tests and
// the STORE=memory development mode. Records are copied in and out, pointer
// fields included, so callers never share state with the store.
package memstore

import (
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// New returns a fresh set of empty in-memory stores.
func New() repository.Stores {
	return repository.Stores{
		Tenants:     NewTenants(),
		Modules:     NewModules(),
		Principals:  NewPrincipals(),
		Memberships: NewMemberships(),
		Facilities:  NewFacilities(),
		Menus:       NewMenus(),
	}
}

var (
	_ repository.TenantStore         = (*Tenants)(nil)
	_ repository.ModuleInstanceStore = (*Modules)(nil)
	_ repository.PrincipalStore      = (*Principals)(nil)
	_ repository.MembershipStore     = (*Memberships)(nil)
	_ repository.FacilityStore       = (*Facilities)(nil)
	_ repository.MenuStore           = (*Menus)(nil)
)

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTenant(t *domain.Tenant) domain.Tenant {
	c := *t
	c.ParentID = clonePtr(t.ParentID)
	return c
}

func cloneModule(m *domain.ModuleInstance) domain.ModuleInstance {
	c := *m
	c.Host = clonePtr(m.Host)
	return c
}

func cloneMembership(m *domain.Membership) domain.Membership {
	c := *m
	c.DeletedAt = clonePtr(m.DeletedAt)
	return c
}

func cloneFacility(f *domain.Facility) domain.Facility {
	c := *f
	c.Description = clonePtr(f.Description)
	c.Thumbnail = clonePtr(f.Thumbnail)
	return c
}

func cloneMenu(m *domain.Menu) domain.Menu {
	c := *m
	c.ParentID = clonePtr(m.ParentID)
	return c
}
