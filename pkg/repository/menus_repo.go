package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const menuColumns = `id, key, module_instance_id, parent_id, name, menu_type, route, public, position, created_at, updated_at`

// MenusRepository handles website menu persistence.
type MenusRepository struct {
	db *sql.DB
}

// NewMenusRepository creates a new menus repository.
func NewMenusRepository(db *sql.DB) *MenusRepository {
	return &MenusRepository{db: db}
}

// Create creates a new menu entry.
func (r *MenusRepository) Create(ctx context.Context, m *domain.Menu) error {
	query := `
		INSERT INTO menus (` + menuColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Key, m.ModuleInstanceID, m.ParentID, m.Name, m.MenuType, m.Route,
		m.Public, m.Position, m.CreatedAt, m.UpdatedAt,
	)
	return uniqueViolation(err)
}

// GetByKey retrieves a menu entry by key.
func (r *MenusRepository) GetByKey(ctx context.Context, key string) (*domain.Menu, error) {
	m, err := scanMenu(r.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menus WHERE key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMenuNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByInstance returns an instance's entries ordered by position.
func (r *MenusRepository) ListByInstance(ctx context.Context, moduleInstanceID uuid.UUID) ([]*domain.Menu, error) {
	query := `SELECT ` + menuColumns + ` FROM menus WHERE module_instance_id = $1 ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, query, moduleInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Menu
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update saves a menu entry. The owning instance never changes.
func (r *MenusRepository) Update(ctx context.Context, m *domain.Menu) error {
	query := `
		UPDATE menus
		SET parent_id = $1, name = $2, menu_type = $3, route = $4, public = $5, position = $6, updated_at = $7
		WHERE key = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		m.ParentID, m.Name, m.MenuType, m.Route, m.Public, m.Position, m.UpdatedAt, m.Key,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	return expectOne(result, domain.ErrMenuNotFound)
}

func scanMenu(s scanner) (*domain.Menu, error) {
	var m domain.Menu
	var parentID uuid.NullUUID
	err := s.Scan(&m.ID, &m.Key, &m.ModuleInstanceID, &parentID, &m.Name, &m.MenuType, &m.Route,
		&m.Public, &m.Position, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		m.ParentID = &parentID.UUID
	}
	return &m, nil
}
