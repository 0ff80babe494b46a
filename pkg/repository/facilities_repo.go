package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const facilityColumns = `id, key, tenant_id, module_instance_id, name, description, thumbnail, published, archived, created_at, updated_at`

// FacilitiesRepository handles facility persistence.
type FacilitiesRepository struct {
	db *sql.DB
}

// NewFacilitiesRepository creates a new facilities repository.
func NewFacilitiesRepository(db *sql.DB) *FacilitiesRepository {
	return &FacilitiesRepository{db: db}
}

// Create creates a new facility.
func (r *FacilitiesRepository) Create(ctx context.Context, f *domain.Facility) error {
	query := `
		INSERT INTO facilities (` + facilityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Key, f.TenantID, f.ModuleInstanceID, f.Name, f.Description, f.Thumbnail,
		f.Published, f.Archived, f.CreatedAt, f.UpdatedAt,
	)
	return uniqueViolation(err)
}

// GetByKey retrieves a facility by key, archived or not.
func (r *FacilitiesRepository) GetByKey(ctx context.Context, key string) (*domain.Facility, error) {
	f, err := scanFacility(r.db.QueryRowContext(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFacilityNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListByTenant returns the tenant's facilities matching filter, oldest first.
func (r *FacilitiesRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, filter FacilityFilter) ([]*domain.Facility, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}

	if filter.ModuleInstanceID != nil {
		args = append(args, *filter.ModuleInstanceID)
		where = append(where, fmt.Sprintf("module_instance_id = $%d", len(args)))
	}
	if filter.PublishedOnly {
		where = append(where, "published")
	}
	if !filter.IncludeArchived {
		where = append(where, "NOT archived")
	}

	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update saves a facility's content fields. The owning tenant and module
// instance are not updatable.
func (r *FacilitiesRepository) Update(ctx context.Context, f *domain.Facility) error {
	query := `
		UPDATE facilities
		SET name = $1, description = $2, thumbnail = $3, published = $4, archived = $5, updated_at = $6
		WHERE key = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		f.Name, f.Description, f.Thumbnail, f.Published, f.Archived, f.UpdatedAt, f.Key,
	)
	if err != nil {
		return err
	}
	return expectOne(result, domain.ErrFacilityNotFound)
}

func scanFacility(s scanner) (*domain.Facility, error) {
	var f domain.Facility
	var description, thumbnail sql.NullString
	err := s.Scan(
		&f.ID, &f.Key, &f.TenantID, &f.ModuleInstanceID, &f.Name, &description, &thumbnail,
		&f.Published, &f.Archived, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		f.Description = &description.String
	}
	if thumbnail.Valid {
		f.Thumbnail = &thumbnail.String
	}
	return &f, nil
}
