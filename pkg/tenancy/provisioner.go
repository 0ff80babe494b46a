package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// Policy holds provisioning rules that vary by deployment.
type Policy struct {
	// ArchiveReversible allows archived tenants and module instances to be
	// restored. When false, archiving is terminal.
	ArchiveReversible bool
}

// CreateTenantInput holds the fields for a new tenant.
type CreateTenantInput struct {
	Name     string
	Slug     string
	ParentID *uuid.UUID
}

// AddModuleInput holds the fields for a new module instance.
type AddModuleInput struct {
	TenantID uuid.UUID
	Kind     domain.ModuleKind
	Host     *string
	Master   bool
	Live     bool
}

// Provisioner performs super-admin changes to tenants, module instances and
// memberships.
type Provisioner struct {
	tenants     repository.TenantStore
	modules     repository.ModuleInstanceStore
	principals  repository.PrincipalStore
	memberships repository.MembershipStore
	menus       repository.MenuStore
	policy      Policy
	logger      *slog.Logger
}

// NewProvisioner creates a new provisioner.
func NewProvisioner(stores repository.Stores, policy Policy, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		tenants:     stores.Tenants,
		modules:     stores.Modules,
		principals:  stores.Principals,
		memberships: stores.Memberships,
		menus:       stores.Menus,
		policy:      policy,
		logger:      logger,
	}
}

// CreateTenant creates an active tenant.
func (p *Provisioner) CreateTenant(ctx context.Context, in CreateTenantInput) (*domain.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewError(domain.KindValidation, "name is required")
	}
	if err := ValidateSlug(in.Slug); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		if _, err := p.getTenant(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	tenant := &domain.Tenant{
		ID:        uuid.New(),
		Key:       domain.NewKey(),
		Slug:      in.Slug,
		Name:      name,
		Active:    true,
		ParentID:  in.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewError(domain.KindConflict, "slug already in use")
		}
		return nil, err
	}

	p.logger.Info("tenant created", "tenant_id", tenant.ID, "slug", tenant.Slug)
	return tenant, nil
}

// GetTenant retrieves a tenant by ID.
func (p *Provisioner) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return p.getTenant(ctx, id)
}

// SetParent moves a tenant under parentID, or to the top level when parentID
// is nil. A move that would make the tenant its own ancestor is rejected.
func (p *Provisioner) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) (*domain.Tenant, error) {
	tenant, err := p.getTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		all, err := p.tenants.List(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := p.getTenant(ctx, *parentID); err != nil {
			return nil, err
		}
		if CreatesCycle(all, id, *parentID) {
			return nil, domain.NewError(domain.KindValidation, "parent assignment would create a cycle")
		}
	}

	tenant.ParentID = parentID
	return tenant, p.saveTenant(ctx, tenant)
}

// SetTenantActive toggles whether a tenant may be resolved.
func (p *Provisioner) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Tenant, error) {
	tenant, err := p.getTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Active = active
	return tenant, p.saveTenant(ctx, tenant)
}

// ArchiveTenant archives a tenant. Archived tenants never resolve.
func (p *Provisioner) ArchiveTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := p.getTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Archived = true
	if err := p.saveTenant(ctx, tenant); err != nil {
		return nil, err
	}
	p.logger.Info("tenant archived", "tenant_id", id)
	return tenant, nil
}

// RestoreTenant clears the archived flag when the policy allows it.
func (p *Provisioner) RestoreTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if !p.policy.ArchiveReversible {
		return nil, domain.NewError(domain.KindConflict, "archiving is permanent")
	}
	tenant, err := p.getTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Archived = false
	if err := p.saveTenant(ctx, tenant); err != nil {
		return nil, err
	}
	p.logger.Info("tenant restored", "tenant_id", id)
	return tenant, nil
}

// Tree returns the subsidiary hierarchy below rootID.
func (p *Provisioner) Tree(ctx context.Context, rootID uuid.UUID) (*TenantNode, error) {
	all, err := p.tenants.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(all, rootID)
}

// AddModuleInstance enables a module kind for a tenant.
func (p *Provisioner) AddModuleInstance(ctx context.Context, in AddModuleInput) (*domain.ModuleInstance, error) {
	if !in.Kind.Valid() {
		return nil, domain.NewError(domain.KindValidation, "unknown module kind")
	}
	if _, err := p.getTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}

	var host *string
	if in.Host != nil {
		h := NormalizeHost(*in.Host)
		if h == "" {
			return nil, domain.NewError(domain.KindValidation, "host must not be empty")
		}
		host = &h
	}

	now := time.Now()
	instance := &domain.ModuleInstance{
		ID:        uuid.New(),
		Key:       domain.NewKey(),
		TenantID:  in.TenantID,
		Kind:      in.Kind,
		Host:      host,
		Live:      in.Live,
		Master:    in.Master,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.checkBindings(ctx, instance); err != nil {
		return nil, err
	}
	if err := p.modules.Create(ctx, instance); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewError(domain.KindConflict, "module key already in use")
		}
		return nil, err
	}

	p.logger.Info("module instance added", "tenant_id", in.TenantID, "kind", in.Kind, "module_key", instance.Key)

	// The instance is already stored; a seeding failure leaves it usable
	// without default navigation.
	if err := p.seedMenus(ctx, instance); err != nil {
		p.logger.Error("menu seeding failed", "module_key", instance.Key, "error", err)
	}
	return instance, nil
}

// MenuTree returns the navigation tree of a module instance.
func (p *Provisioner) MenuTree(ctx context.Context, moduleKey string) ([]*MenuNode, error) {
	instance, err := p.getInstance(ctx, moduleKey)
	if err != nil {
		return nil, err
	}
	menus, err := p.menus.ListByInstance(ctx, instance.ID)
	if err != nil {
		return nil, err
	}
	return BuildMenuTree(menus), nil
}

// SetMenuParent nests a menu entry under another entry of the same instance,
// or moves it to the top level when parentKey is nil. A move that would put
// the entry under itself is rejected.
func (p *Provisioner) SetMenuParent(ctx context.Context, moduleKey, menuKey string, parentKey *string) (*domain.Menu, error) {
	instance, err := p.getInstance(ctx, moduleKey)
	if err != nil {
		return nil, err
	}
	menu, err := p.getMenu(ctx, instance, menuKey)
	if err != nil {
		return nil, err
	}

	var parentID *uuid.UUID
	if parentKey != nil {
		parent, err := p.getMenu(ctx, instance, *parentKey)
		if err != nil {
			return nil, err
		}
		siblings, err := p.menus.ListByInstance(ctx, instance.ID)
		if err != nil {
			return nil, err
		}
		if MenuCreatesCycle(siblings, menu.ID, parent.ID) {
			return nil, domain.NewError(domain.KindValidation, "parent assignment would create a cycle")
		}
		parentID = &parent.ID
	}

	menu.ParentID = parentID
	menu.UpdatedAt = time.Now()
	if err := p.menus.Update(ctx, menu); err != nil {
		if errors.Is(err, domain.ErrMenuNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return menu, nil
}

// seedMenus adds the default navigation of instance's kind to the tenant's
// website. A new website also picks up the entries of modules enabled
// before it. Entries whose menu type already exists are kept as they are.
func (p *Provisioner) seedMenus(ctx context.Context, instance *domain.ModuleInstance) error {
	siblings, err := p.modules.ListByTenant(ctx, instance.TenantID)
	if err != nil {
		return err
	}

	website := instance
	kinds := []domain.ModuleKind{instance.Kind}
	if instance.Kind == domain.ModuleWebsite {
		for _, other := range siblings {
			if other.ID != instance.ID && !other.Archived && other.Kind != domain.ModuleWebsite {
				kinds = append(kinds, other.Kind)
			}
		}
	} else {
		website = nil
		for _, other := range siblings {
			if other.Kind == domain.ModuleWebsite && !other.Archived {
				website = other
				break
			}
		}
	}
	if website == nil {
		p.logger.Debug("no website to seed menus on", "tenant_id", instance.TenantID, "kind", instance.Kind)
		return nil
	}

	now := time.Now()
	for _, kind := range kinds {
		for _, seed := range domain.MenuSeeds[kind] {
			menu := &domain.Menu{
				ID:               uuid.New(),
				Key:              domain.NewKey(),
				ModuleInstanceID: website.ID,
				Name:             seed.MenuType,
				MenuType:         seed.MenuType,
				Route:            seed.Route,
				Public:           true,
				Position:         seed.Position,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			err := p.menus.Create(ctx, menu)
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ListModuleInstances returns every instance of a tenant.
func (p *Provisioner) ListModuleInstances(ctx context.Context, tenantID uuid.UUID) ([]*domain.ModuleInstance, error) {
	if _, err := p.getTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return p.modules.ListByTenant(ctx, tenantID)
}

// SetInstanceLive moves an instance between live and not-live.
func (p *Provisioner) SetInstanceLive(ctx context.Context, key string, live bool) (*domain.ModuleInstance, error) {
	instance, err := p.getInstance(ctx, key)
	if err != nil {
		return nil, err
	}
	if instance.Archived {
		return nil, domain.NewError(domain.KindConflict, "archived module instances cannot change state")
	}
	instance.Live = live
	return instance, p.saveInstance(ctx, instance)
}

// ArchiveInstance archives a module instance from either live state.
func (p *Provisioner) ArchiveInstance(ctx context.Context, key string) (*domain.ModuleInstance, error) {
	instance, err := p.getInstance(ctx, key)
	if err != nil {
		return nil, err
	}
	instance.Archived = true
	if err := p.saveInstance(ctx, instance); err != nil {
		return nil, err
	}
	p.logger.Info("module instance archived", "module_key", key)
	return instance, nil
}

// RestoreInstance clears the archived flag when the policy allows it. The
// restored instance must not clash with a current master or host binding.
func (p *Provisioner) RestoreInstance(ctx context.Context, key string) (*domain.ModuleInstance, error) {
	if !p.policy.ArchiveReversible {
		return nil, domain.NewError(domain.KindConflict, "archiving is permanent")
	}
	instance, err := p.getInstance(ctx, key)
	if err != nil {
		return nil, err
	}
	instance.Archived = false
	if err := p.checkBindings(ctx, instance); err != nil {
		return nil, err
	}
	if err := p.saveInstance(ctx, instance); err != nil {
		return nil, err
	}
	p.logger.Info("module instance restored", "module_key", key)
	return instance, nil
}

// GrantRole gives a principal a role in a tenant. SUPER_ADMIN is a
// principal flag and cannot be granted per tenant.
func (p *Provisioner) GrantRole(ctx context.Context, tenantID, principalID uuid.UUID, role domain.Role) (*domain.Membership, error) {
	if !role.TenantRole() {
		return nil, domain.NewError(domain.KindValidation, "role cannot be granted per tenant")
	}
	if _, err := p.getTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if _, err := p.principals.GetByID(ctx, principalID); err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	membership := &domain.Membership{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		Role:        role,
		Status:      domain.MembershipStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.memberships.Create(ctx, membership); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewError(domain.KindConflict, "role already granted")
		}
		return nil, err
	}

	p.logger.Info("role granted", "tenant_id", tenantID, "principal_id", principalID, "role", role)
	return membership, nil
}

// RevokeRole removes a principal's role in a tenant.
func (p *Provisioner) RevokeRole(ctx context.Context, tenantID, principalID uuid.UUID, role domain.Role) error {
	if err := p.memberships.SoftDelete(ctx, tenantID, principalID, role); err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	p.logger.Info("role revoked", "tenant_id", tenantID, "principal_id", principalID, "role", role)
	return nil
}

// ListMembers returns the memberships of a tenant.
func (p *Provisioner) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	if _, err := p.getTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	return p.memberships.ListByTenant(ctx, tenantID)
}

// checkBindings keeps a non-archived instance from sharing its host with
// another non-archived instance or becoming a second master of its tenant.
func (p *Provisioner) checkBindings(ctx context.Context, instance *domain.ModuleInstance) error {
	if instance.Archived {
		return nil
	}

	if instance.Host != nil {
		sharing, err := p.modules.ListByHost(ctx, *instance.Host)
		if err != nil {
			return err
		}
		for _, other := range sharing {
			if other.ID != instance.ID && !other.Archived {
				return domain.NewError(domain.KindConflict, "host already bound to another module")
			}
		}
	}

	if instance.Master {
		siblings, err := p.modules.ListByTenant(ctx, instance.TenantID)
		if err != nil {
			return err
		}
		for _, other := range siblings {
			if other.ID != instance.ID && other.Master && !other.Archived {
				return domain.NewError(domain.KindConflict, "tenant already has a master module")
			}
		}
	}
	return nil
}

func (p *Provisioner) getTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := p.tenants.GetByID(ctx, id)
	if errors.Is(err, domain.ErrTenantNotFound) {
		return nil, domain.ErrNotFound
	}
	return tenant, err
}

func (p *Provisioner) getInstance(ctx context.Context, key string) (*domain.ModuleInstance, error) {
	instance, err := p.modules.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrModuleInstanceNotFound) {
		return nil, domain.ErrNotFound
	}
	return instance, err
}

// getMenu loads a menu entry that belongs to instance.
func (p *Provisioner) getMenu(ctx context.Context, instance *domain.ModuleInstance, key string) (*domain.Menu, error) {
	menu, err := p.menus.GetByKey(ctx, key)
	if errors.Is(err, domain.ErrMenuNotFound) || (err == nil && menu.ModuleInstanceID != instance.ID) {
		return nil, domain.ErrNotFound
	}
	return menu, err
}

func (p *Provisioner) saveTenant(ctx context.Context, tenant *domain.Tenant) error {
	tenant.UpdatedAt = time.Now()
	err := p.tenants.Update(ctx, tenant)
	if errors.Is(err, domain.ErrTenantNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func (p *Provisioner) saveInstance(ctx context.Context, instance *domain.ModuleInstance) error {
	instance.UpdatedAt = time.Now()
	err := p.modules.Update(ctx, instance)
	if errors.Is(err, domain.ErrModuleInstanceNotFound) {
		return domain.ErrNotFound
	}
	return err
}
