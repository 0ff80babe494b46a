package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Principal is an identity that can sign in to the admin surface.
type Principal struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Enabled      bool
	Deactivated  bool
	SuperAdmin   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate reports whether the principal may sign in or use a token.
func (p *Principal) CanAuthenticate() bool {
	return p.Enabled && !p.Deactivated
}

// Role is a label from the fixed role catalog.
type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleCompanyAdmin    Role = "COMPANY_ADMIN"
	RoleCompanyAuthor   Role = "COMPANY_AUTHOR"
	RoleCompanyReviewer Role = "COMPANY_REVIEWER"
	RoleCompanyUser     Role = "COMPANY_USER"
)

// ParseRole validates a role label.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleCompanyAuthor, RoleCompanyReviewer, RoleCompanyUser:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// TenantRole reports whether r may be granted through a tenant membership.
// SUPER_ADMIN is carried on the principal itself.
func (r Role) TenantRole() bool {
	return r != RoleSuperAdmin && r != ""
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Add inserts r.
func (s RoleSet) Add(r Role) {
	s[r] = struct{}{}
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set contains at least one of roles.
// An empty roles list is satisfied by any set.
func (s RoleSet) HasAny(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Labels returns the sorted role labels as strings.
func (s RoleSet) Labels() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, r := range sorted {
		out[i] = string(r)
	}
	return out
}
