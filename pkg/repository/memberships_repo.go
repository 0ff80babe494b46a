package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const membershipColumns = `id, tenant_id, principal_id, role, status, created_at, updated_at, deleted_at`

// MembershipsRepository handles membership data persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.CreateTx(ctx, r.db, membership)
}

// CreateTx creates a new membership within a transaction. A second live
// membership for the same tenant, principal and role is rejected.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, principal_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		membership.ID,
		membership.TenantID,
		membership.PrincipalID,
		string(membership.Role),
		string(membership.Status),
		membership.CreatedAt,
		membership.UpdatedAt,
	)
	return uniqueViolation(err)
}

// ListByPrincipal returns a principal's live memberships.
func (r *MembershipsRepository) ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE principal_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`
	return r.list(ctx, query, principalID)
}

// ListByTenant returns a tenant's live memberships.
func (r *MembershipsRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`
	return r.list(ctx, query, tenantID)
}

// SoftDelete revokes one role of a principal in a tenant.
func (r *MembershipsRepository) SoftDelete(ctx context.Context, tenantID, principalID uuid.UUID, role domain.Role) error {
	query := `
		UPDATE memberships
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND principal_id = $2 AND role = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, tenantID, principalID, string(role))
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrMembershipNotFound)
}

func (r *MembershipsRepository) list(ctx context.Context, query string, arg any) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role, status string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.PrincipalID, &role, &status, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		m.Status = domain.MembershipStatus(status)
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}
