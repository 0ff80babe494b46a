package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/tendant/tenantgate/pkg/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a connection pool for dsn and verifies it with a ping.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema files in name order. Every file is
// idempotent, so Migrate may run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// NewStores wires the Postgres repositories into a Stores bundle.
func NewStores(db *sql.DB) Stores {
	return Stores{
		Tenants:     NewTenantsRepository(db),
		Modules:     NewModuleInstancesRepository(db),
		Principals:  NewPrincipalsRepository(db),
		Memberships: NewMembershipsRepository(db),
		Facilities:  NewFacilitiesRepository(db),
		Menus:       NewMenusRepository(db),
	}
}

// uniqueViolation maps a Postgres unique_violation to domain.ErrAlreadyExists.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}

// expectOne returns notFound when result affected no rows.
func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

var (
	_ TenantStore         = (*TenantsRepository)(nil)
	_ ModuleInstanceStore = (*ModuleInstancesRepository)(nil)
	_ PrincipalStore      = (*PrincipalsRepository)(nil)
	_ MembershipStore     = (*MembershipsRepository)(nil)
	_ FacilityStore       = (*FacilitiesRepository)(nil)
	_ MenuStore           = (*MenusRepository)(nil)
)
