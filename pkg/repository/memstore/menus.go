package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Menus stores website menu entries in memory.
type Menus struct {
	mu    sync.RWMutex
	menus map[uuid.UUID]domain.Menu
}

// NewMenus creates an empty menu store.
func NewMenus() *Menus {
	return &Menus{menus: make(map[uuid.UUID]domain.Menu)}
}

func (s *Menus) Create(_ context.Context, m *domain.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUnique(m); err != nil {
		return err
	}
	if _, ok := s.menus[m.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.menus[m.ID] = cloneMenu(m)
	return nil
}

func (s *Menus) GetByKey(_ context.Context, key string) (*domain.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.menus {
		if m.Key == key {
			c := cloneMenu(&m)
			return &c, nil
		}
	}
	return nil, domain.ErrMenuNotFound
}

func (s *Menus) ListByInstance(_ context.Context, moduleInstanceID uuid.UUID) ([]*domain.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Menu
	for _, m := range s.menus {
		if m.ModuleInstanceID == moduleInstanceID {
			c := cloneMenu(&m)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a menu entry. The owning instance is immutable.
func (s *Menus) Update(_ context.Context, m *domain.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.menus[m.ID]
	if !ok {
		return domain.ErrMenuNotFound
	}
	m.ModuleInstanceID = existing.ModuleInstanceID
	if err := s.checkUnique(m); err != nil {
		return err
	}
	s.menus[m.ID] = cloneMenu(m)
	return nil
}

// checkUnique mirrors the Postgres unique key and (instance, menu type)
// constraints.
func (s *Menus) checkUnique(m *domain.Menu) error {
	for id, existing := range s.menus {
		if id == m.ID {
			continue
		}
		if existing.Key == m.Key ||
			(existing.ModuleInstanceID == m.ModuleInstanceID && existing.MenuType == m.MenuType) {
			return domain.ErrAlreadyExists
		}
	}
	return nil
}
