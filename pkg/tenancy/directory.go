// Package tenancy resolves and provisions tenants and their module instances.
package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// Lookup identifies a module instance by routing key or by host. When both
// are set the key wins.
type Lookup struct {
	Host string
	Key  string
}

// Directory resolves lookups to servable module instances.
type Directory struct {
	tenants repository.TenantStore
	modules repository.ModuleInstanceStore
	logger  *slog.Logger
}

// NewDirectory creates a new directory.
func NewDirectory(tenants repository.TenantStore, modules repository.ModuleInstanceStore, logger *slog.Logger) *Directory {
	return &Directory{tenants: tenants, modules: modules, logger: logger}
}

// NormalizeHost lowercases host and strips any port and trailing dot.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

// Resolve returns the live, non-archived instance matching l together with
// its active, non-archived tenant. Every other outcome, including an
// instance that exists but is archived or not live, is domain.ErrNotFound.
func (d *Directory) Resolve(ctx context.Context, l Lookup) (*domain.ModuleBinding, error) {
	if l.Key != "" {
		return d.resolveKey(ctx, l.Key)
	}
	if host := NormalizeHost(l.Host); host != "" {
		return d.resolveHost(ctx, host)
	}
	return nil, domain.ErrNotFound
}

// ResolveKind resolves l and then returns the same tenant's servable
// instance of kind. It lets a journal host authenticate journal-index
// routes and the reverse.
func (d *Directory) ResolveKind(ctx context.Context, l Lookup, kind domain.ModuleKind) (*domain.ModuleBinding, error) {
	binding, err := d.Resolve(ctx, l)
	if err != nil {
		return nil, err
	}
	if binding.Instance.Kind == kind {
		return binding, nil
	}

	siblings, err := d.modules.ListByTenant(ctx, binding.Tenant.ID)
	if err != nil {
		return nil, d.internal("list tenant modules", err)
	}

	var candidates []*domain.ModuleBinding
	for _, m := range siblings {
		if m.Kind == kind && m.Resolvable() {
			candidates = append(candidates, &domain.ModuleBinding{Instance: *m, Tenant: binding.Tenant})
		}
	}

	switch len(candidates) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return candidates[0], nil
	}
	if winner := masterOfOneTenant(candidates); winner != nil {
		return winner, nil
	}
	d.logger.Warn("ambiguous module kind for tenant", "tenant_id", binding.Tenant.ID, "kind", kind)
	return nil, domain.ErrNotFound
}

func (d *Directory) resolveKey(ctx context.Context, key string) (*domain.ModuleBinding, error) {
	instance, err := d.modules.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrModuleInstanceNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, d.internal("load module instance", err)
	}
	if !instance.Resolvable() {
		return nil, domain.ErrNotFound
	}

	tenant, err := d.tenant(ctx, instance.TenantID)
	if err != nil {
		return nil, err
	}
	binding := &domain.ModuleBinding{Instance: *instance, Tenant: *tenant}
	if !binding.Resolvable() {
		return nil, domain.ErrNotFound
	}
	return binding, nil
}

func (d *Directory) resolveHost(ctx context.Context, host string) (*domain.ModuleBinding, error) {
	instances, err := d.modules.ListByHost(ctx, host)
	if err != nil {
		return nil, d.internal("list modules by host", err)
	}

	tenants := make(map[uuid.UUID]*domain.Tenant)
	var candidates []*domain.ModuleBinding
	for _, instance := range instances {
		if !instance.Resolvable() {
			continue
		}
		tenant, ok := tenants[instance.TenantID]
		if !ok {
			tenant, err = d.tenant(ctx, instance.TenantID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			tenants[instance.TenantID] = tenant
		}
		if !tenant.Resolvable() {
			continue
		}
		candidates = append(candidates, &domain.ModuleBinding{Instance: *instance, Tenant: *tenant})
	}

	switch len(candidates) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return candidates[0], nil
	}

	if winner := masterOfOneTenant(candidates); winner != nil {
		return winner, nil
	}
	d.logger.Warn("ambiguous host binding", "host", host, "candidates", len(candidates))
	return nil, domain.ErrNotFound
}

// masterOfOneTenant returns the single master candidate when every candidate
// belongs to the same tenant, and nil otherwise.
func masterOfOneTenant(candidates []*domain.ModuleBinding) *domain.ModuleBinding {
	var master *domain.ModuleBinding
	for _, c := range candidates {
		if c.Tenant.ID != candidates[0].Tenant.ID {
			return nil
		}
		if c.Instance.Master {
			if master != nil {
				return nil
			}
			master = c
		}
	}
	return master
}

func (d *Directory) tenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := d.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, d.internal("load tenant", err)
	}
	return tenant, nil
}

func (d *Directory) internal(op string, err error) error {
	d.logger.Error("directory lookup failed", "op", op, "error", err)
	return domain.WrapError(err, domain.KindInternal, "lookup failed")
}
