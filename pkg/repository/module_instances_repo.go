package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const moduleColumns = `id, key, tenant_id, kind, host, live, archived, master, created_at, updated_at`

// ModuleInstancesRepository handles module instance persistence. Host
// uniqueness is a provisioning rule and is not enforced here.
type ModuleInstancesRepository struct {
	db *sql.DB
}

// NewModuleInstancesRepository creates a new module instances repository.
func NewModuleInstancesRepository(db *sql.DB) *ModuleInstancesRepository {
	return &ModuleInstancesRepository{db: db}
}

// Create creates a new module instance.
func (r *ModuleInstancesRepository) Create(ctx context.Context, m *domain.ModuleInstance) error {
	query := `
		INSERT INTO module_instances (` + moduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Key, m.TenantID, string(m.Kind), m.Host, m.Live, m.Archived, m.Master, m.CreatedAt, m.UpdatedAt,
	)
	return uniqueViolation(err)
}

// GetByKey retrieves a module instance by its routing key.
func (r *ModuleInstancesRepository) GetByKey(ctx context.Context, key string) (*domain.ModuleInstance, error) {
	m, err := scanModule(r.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM module_instances WHERE key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrModuleInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByHost returns every instance bound to host, archived or not.
func (r *ModuleInstancesRepository) ListByHost(ctx context.Context, host string) ([]*domain.ModuleInstance, error) {
	return r.list(ctx, `SELECT `+moduleColumns+` FROM module_instances WHERE host = $1 ORDER BY created_at`, host)
}

// ListByTenant returns every instance of a tenant.
func (r *ModuleInstancesRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.ModuleInstance, error) {
	return r.list(ctx, `SELECT `+moduleColumns+` FROM module_instances WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
}

// Update saves an instance's state. Key, tenant and kind never change.
func (r *ModuleInstancesRepository) Update(ctx context.Context, m *domain.ModuleInstance) error {
	query := `
		UPDATE module_instances
		SET host = $1, live = $2, archived = $3, master = $4, updated_at = $5
		WHERE key = $6
	`
	result, err := r.db.ExecContext(ctx, query, m.Host, m.Live, m.Archived, m.Master, m.UpdatedAt, m.Key)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrModuleInstanceNotFound)
}

func (r *ModuleInstancesRepository) list(ctx context.Context, query string, arg any) ([]*domain.ModuleInstance, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ModuleInstance
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanModule(s scanner) (*domain.ModuleInstance, error) {
	var m domain.ModuleInstance
	var kind string
	var host sql.NullString
	err := s.Scan(&m.ID, &m.Key, &m.TenantID, &kind, &host, &m.Live, &m.Archived, &m.Master, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Kind = domain.ModuleKind(kind)
	if host.Valid {
		m.Host = &host.String
	}
	return &m, nil
}
