package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Tenants stores tenants in memory.
type Tenants struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]domain.Tenant
}

// NewTenants creates an empty tenant store.
func NewTenants() *Tenants {
	return &Tenants{tenants: make(map[uuid.UUID]domain.Tenant)}
}

func (s *Tenants) Create(_ context.Context, t *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range s.tenants {
		if existing.Slug == t.Slug || existing.Key == t.Key {
			return domain.ErrAlreadyExists
		}
	}
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}

func (s *Tenants) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	c := cloneTenant(&t)
	return &c, nil
}

func (s *Tenants) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			c := cloneTenant(&t)
			return &c, nil
		}
	}
	return nil, domain.ErrTenantNotFound
}

func (s *Tenants) List(_ context.Context) ([]*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		c := cloneTenant(&t)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Tenants) Update(_ context.Context, t *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; !ok {
		return domain.ErrTenantNotFound
	}
	for id, existing := range s.tenants {
		if id != t.ID && existing.Slug == t.Slug {
			return domain.ErrAlreadyExists
		}
	}
	s.tenants[t.ID] = cloneTenant(t)
	return nil
}
