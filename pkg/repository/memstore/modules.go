package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Modules stores module instances in memory.
type Modules struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]domain.ModuleInstance
}

// NewModules creates an empty module instance store.
func NewModules() *Modules {
	return &Modules{instances: make(map[uuid.UUID]domain.ModuleInstance)}
}

func (s *Modules) Create(_ context.Context, m *domain.ModuleInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(m); err != nil {
		return err
	}
	if _, ok := s.instances[m.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.instances[m.ID] = cloneModule(m)
	return nil
}

func (s *Modules) GetByKey(_ context.Context, key string) (*domain.ModuleInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.instances {
		if m.Key == key {
			c := cloneModule(&m)
			return &c, nil
		}
	}
	return nil, domain.ErrModuleInstanceNotFound
}

func (s *Modules) ListByHost(_ context.Context, host string) ([]*domain.ModuleInstance, error) {
	return s.list(func(m *domain.ModuleInstance) bool {
		return m.Host != nil && *m.Host == host
	}), nil
}

func (s *Modules) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*domain.ModuleInstance, error) {
	return s.list(func(m *domain.ModuleInstance) bool {
		return m.TenantID == tenantID
	}), nil
}

func (s *Modules) Update(_ context.Context, m *domain.ModuleInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[m.ID]; !ok {
		return domain.ErrModuleInstanceNotFound
	}
	if err := s.checkUnique(m); err != nil {
		return err
	}
	s.instances[m.ID] = cloneModule(m)
	return nil
}

// checkUnique mirrors the Postgres unique key constraint. Hosts are not
// unique at the storage level.
func (s *Modules) checkUnique(m *domain.ModuleInstance) error {
	for id, existing := range s.instances {
		if id != m.ID && existing.Key == m.Key {
			return domain.ErrAlreadyExists
		}
	}
	return nil
}

func (s *Modules) list(keep func(*domain.ModuleInstance) bool) []*domain.ModuleInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ModuleInstance
	for _, m := range s.instances {
		if keep(&m) {
			c := cloneModule(&m)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
