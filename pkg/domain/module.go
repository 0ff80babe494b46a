package domain

import (
	"time"

	"github.com/google/uuid"
)

// ModuleKind is a feature category a tenant can enable.
type ModuleKind string

const (
	ModuleWebsite      ModuleKind = "website"
	ModuleEducation    ModuleKind = "education"
	ModuleJournal      ModuleKind = "journal"
	ModuleJournalIndex ModuleKind = "journal-index"
	ModuleReview       ModuleKind = "review"
)

// ModuleKinds lists the catalog in display order.
var ModuleKinds = []ModuleKind{
	ModuleWebsite,
	ModuleEducation,
	ModuleJournal,
	ModuleJournalIndex,
	ModuleReview,
}

// Valid reports whether k belongs to the catalog.
func (k ModuleKind) Valid() bool {
	for _, known := range ModuleKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ModuleInstance binds one tenant to one module kind.
type ModuleInstance struct {
	ID        uuid.UUID
	Key       string
	TenantID  uuid.UUID
	Kind      ModuleKind
	Host      *string
	Live      bool
	Archived  bool
	Master    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolvable reports whether the instance may be served. Live && !Archived
// is the only resolvable state.
func (m *ModuleInstance) Resolvable() bool {
	return m.Live && !m.Archived
}

// ModuleBinding is a module instance together with its owning tenant.
type ModuleBinding struct {
	Instance ModuleInstance
	Tenant   Tenant
}

// Resolvable reports whether both the instance and its tenant are servable.
func (b *ModuleBinding) Resolvable() bool {
	return b.Instance.Resolvable() && b.Tenant.Resolvable()
}
