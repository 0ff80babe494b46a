package domain

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus represents the state of a principal's membership.
type MembershipStatus string

const (
	MembershipStatusInvited   MembershipStatus = "invited"
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusSuspended MembershipStatus = "suspended"
)

// Membership grants a principal one role in one tenant. A principal holding
// several roles in a tenant has one membership per role.
type Membership struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	PrincipalID uuid.UUID
	Role        Role
	Status      MembershipStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsActive returns true if the membership is active.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive && m.DeletedAt == nil
}

// RolesFor collects the active roles memberships grant in tenantID.
func RolesFor(memberships []*Membership, tenantID uuid.UUID) RoleSet {
	roles := NewRoleSet()
	for _, m := range memberships {
		if m.TenantID == tenantID && m.IsActive() {
			roles.Add(m.Role)
		}
	}
	return roles
}
