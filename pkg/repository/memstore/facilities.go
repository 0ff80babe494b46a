package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// Facilities stores facilities in memory.
type Facilities struct {
	mu         sync.RWMutex
	facilities map[uuid.UUID]domain.Facility
}

// NewFacilities creates an empty facility store.
func NewFacilities() *Facilities {
	return &Facilities{facilities: make(map[uuid.UUID]domain.Facility)}
}

func (s *Facilities) Create(_ context.Context, f *domain.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.facilities {
		if existing.ID == f.ID || existing.Key == f.Key {
			return domain.ErrAlreadyExists
		}
	}
	s.facilities[f.ID] = cloneFacility(f)
	return nil
}

func (s *Facilities) GetByKey(_ context.Context, key string) (*domain.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.facilities {
		if f.Key == key {
			c := cloneFacility(&f)
			return &c, nil
		}
	}
	return nil, domain.ErrFacilityNotFound
}

func (s *Facilities) ListByTenant(_ context.Context, tenantID uuid.UUID, filter repository.FacilityFilter) ([]*domain.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Facility
	for _, f := range s.facilities {
		switch {
		case f.TenantID != tenantID:
			continue
		case filter.ModuleInstanceID != nil && f.ModuleInstanceID != *filter.ModuleInstanceID:
			continue
		case filter.PublishedOnly && !f.Published:
			continue
		case !filter.IncludeArchived && f.Archived:
			continue
		}
		c := cloneFacility(&f)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Update replaces a facility. The owning tenant is immutable.
func (s *Facilities) Update(_ context.Context, f *domain.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.facilities[f.ID]
	if !ok {
		return domain.ErrFacilityNotFound
	}
	f.TenantID = existing.TenantID
	s.facilities[f.ID] = cloneFacility(f)
	return nil
}
