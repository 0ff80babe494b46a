package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

// Memberships stores memberships in memory.
type Memberships struct {
	mu          sync.RWMutex
	memberships []domain.Membership
}

// NewMemberships creates an empty membership store.
func NewMemberships() *Memberships {
	return &Memberships{}
}

func (s *Memberships) Create(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.DeletedAt == nil && existing.TenantID == m.TenantID &&
			existing.PrincipalID == m.PrincipalID && existing.Role == m.Role {
			return domain.ErrAlreadyExists
		}
	}
	s.memberships = append(s.memberships, cloneMembership(m))
	return nil
}

func (s *Memberships) ListByPrincipal(_ context.Context, principalID uuid.UUID) ([]*domain.Membership, error) {
	return s.list(func(m *domain.Membership) bool { return m.PrincipalID == principalID }), nil
}

func (s *Memberships) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	return s.list(func(m *domain.Membership) bool { return m.TenantID == tenantID }), nil
}

func (s *Memberships) SoftDelete(_ context.Context, tenantID, principalID uuid.UUID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.memberships {
		m := &s.memberships[i]
		if m.DeletedAt == nil && m.TenantID == tenantID && m.PrincipalID == principalID && m.Role == role {
			now := time.Now()
			m.DeletedAt = &now
			m.UpdatedAt = now
			return nil
		}
	}
	return domain.ErrMembershipNotFound
}

func (s *Memberships) list(keep func(*domain.Membership) bool) []*domain.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Membership
	for _, m := range s.memberships {
		if m.DeletedAt == nil && keep(&m) {
			c := cloneMembership(&m)
			out = append(out, &c)
		}
	}
	return out
}
