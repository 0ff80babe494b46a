package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
)

const principalColumns = `id, email, name, password_hash, enabled, deactivated, super_admin, created_at, updated_at`

// PrincipalsRepository handles principal persistence.
type PrincipalsRepository struct {
	db *sql.DB
}

// NewPrincipalsRepository creates a new principals repository.
func NewPrincipalsRepository(db *sql.DB) *PrincipalsRepository {
	return &PrincipalsRepository{db: db}
}

// Create creates a new principal.
func (r *PrincipalsRepository) Create(ctx context.Context, p *domain.Principal) error {
	query := `
		INSERT INTO principals (` + principalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Enabled, p.Deactivated, p.SuperAdmin, p.CreatedAt, p.UpdatedAt,
	)
	return uniqueViolation(err)
}

// GetByID retrieves a principal by ID.
func (r *PrincipalsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	return r.getOne(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
}

// GetByEmail retrieves a principal by normalized email.
func (r *PrincipalsRepository) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return r.getOne(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email)
}

// ExistsByEmail checks if a principal exists by email.
func (r *PrincipalsRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM principals WHERE email = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// Update saves a principal's mutable fields.
func (r *PrincipalsRepository) Update(ctx context.Context, p *domain.Principal) error {
	query := `
		UPDATE principals
		SET email = $1, name = $2, password_hash = $3, enabled = $4, deactivated = $5, super_admin = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Email, p.Name, p.PasswordHash, p.Enabled, p.Deactivated, p.SuperAdmin, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	return expectOne(result, domain.ErrPrincipalNotFound)
}

func (r *PrincipalsRepository) getOne(ctx context.Context, query string, arg any) (*domain.Principal, error) {
	p := &domain.Principal{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Enabled, &p.Deactivated, &p.SuperAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
