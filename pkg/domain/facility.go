package domain

import (
	"time"

	"github.com/google/uuid"
)

// Facility is a tenant-owned education resource.
type Facility struct {
	ID               uuid.UUID
	Key              string
	TenantID         uuid.UUID
	ModuleInstanceID uuid.UUID
	Name             string
	Description      *string
	Thumbnail        *string
	Published        bool
	Archived         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OwnerTenantID returns the tenant that owns the facility.
func (f *Facility) OwnerTenantID() uuid.UUID {
	return f.TenantID
}

// OwnerInstanceID returns the module instance the facility was created in.
func (f *Facility) OwnerInstanceID() uuid.UUID {
	return f.ModuleInstanceID
}

// Visible reports whether anonymous visitors may see the facility.
func (f *Facility) Visible() bool {
	return f.Published && !f.Archived
}
