package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Principals stores principals in memory, indexed by email.
type Principals struct {
	mu         sync.RWMutex
	principals map[uuid.UUID]domain.Principal
	emailIdx   map[string]uuid.UUID
}

// NewPrincipals creates an empty principal store.
func NewPrincipals() *Principals {
	return &Principals{
		principals: make(map[uuid.UUID]domain.Principal),
		emailIdx:   make(map[string]uuid.UUID),
	}
}

func (s *Principals) Create(_ context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emailIdx[p.Email]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.principals[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.principals[p.ID] = *p
	s.emailIdx[p.Email] = p.ID
	return nil
}

func (s *Principals) GetByID(_ context.Context, id uuid.UUID) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return &p, nil
}

func (s *Principals) GetByEmail(_ context.Context, email string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIdx[email]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	p := s.principals[id]
	return &p, nil
}

func (s *Principals) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emailIdx[email]
	return ok, nil
}

func (s *Principals) Update(_ context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.principals[p.ID]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	if p.Email != existing.Email {
		if _, taken := s.emailIdx[p.Email]; taken {
			return domain.ErrAlreadyExists
		}
		delete(s.emailIdx, existing.Email)
		s.emailIdx[p.Email] = p.ID
	}
	s.principals[p.ID] = *p
	return nil
}
