package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const tenantColumns = `id, key, slug, name, active, archived, parent_id, created_at, updated_at`

// TenantsRepository handles tenant data persistence.
type TenantsRepository struct {
	db *sql.DB
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(db *sql.DB) *TenantsRepository {
	return &TenantsRepository{db: db}
}

// Create creates a new tenant.
func (r *TenantsRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.CreateTx(ctx, r.db, tenant)
}

// CreateTx creates a new tenant within a transaction.
func (r *TenantsRepository) CreateTx(ctx context.Context, q Querier, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		tenant.ID,
		tenant.Key,
		tenant.Slug,
		tenant.Name,
		tenant.Active,
		tenant.Archived,
		tenant.ParentID,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	return uniqueViolation(err)
}

// GetByID retrieves a tenant by ID, archived or not.
func (r *TenantsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

// GetBySlug retrieves a tenant by slug.
func (r *TenantsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
}

// List returns every tenant ordered by name.
func (r *TenantsRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// Update saves a tenant's mutable fields. The key never changes.
func (r *TenantsRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET slug = $1, name = $2, active = $3, archived = $4, parent_id = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		tenant.Slug,
		tenant.Name,
		tenant.Active,
		tenant.Archived,
		tenant.ParentID,
		tenant.UpdatedAt,
		tenant.ID,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	return expectOne(result, domain.ErrTenantNotFound)
}

func (r *TenantsRepository) getOne(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(s scanner) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var parentID uuid.NullUUID
	err := s.Scan(
		&tenant.ID,
		&tenant.Key,
		&tenant.Slug,
		&tenant.Name,
		&tenant.Active,
		&tenant.Archived,
		&parentID,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		tenant.ParentID = &parentID.UUID
	}
	return &tenant, nil
}
