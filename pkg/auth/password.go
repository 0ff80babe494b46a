package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
)

// RegisterInput holds the fields for a new principal.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	SuperAdmin bool
}

// PrincipalService manages principals and their credentials.
type PrincipalService struct {
	principals            repository.PrincipalStore
	verifier              *CredentialVerifier
	policy                *PasswordPolicy
	strictEmailValidation bool
	blockDisposableEmail  bool
	logger                *slog.Logger
}

// NewPrincipalService creates a new principal service.
func NewPrincipalService(principals repository.PrincipalStore, verifier *CredentialVerifier, policy *PasswordPolicy, strictEmailValidation, blockDisposableEmail bool, logger *slog.Logger) *PrincipalService {
	return &PrincipalService{
		principals:            principals,
		verifier:              verifier,
		policy:                policy,
		strictEmailValidation: strictEmailValidation,
		blockDisposableEmail:  blockDisposableEmail,
		logger:                logger,
	}
}

// Register creates an enabled principal with a canonical password hash.
func (s *PrincipalService) Register(ctx context.Context, in RegisterInput) (*domain.Principal, error) {
	if err := ValidateEmail(in.Email, s.strictEmailValidation, s.blockDisposableEmail); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	if err := s.checkPolicy(in.Password); err != nil {
		return nil, err
	}

	name := SanitizeName(in.Name)
	if err := ValidateStringLength("name", name, 0, 255); err != nil {
		return nil, err
	}

	exists, err := s.principals.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.NewError(domain.KindConflict, "email already registered")
	}

	hash, err := s.verifier.Encode(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	principal := &domain.Principal{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Enabled:      true,
		SuperAdmin:   in.SuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewError(domain.KindConflict, "email already registered")
		}
		return nil, err
	}

	s.logger.Info("principal registered", "principal_id", principal.ID, "super_admin", principal.SuperAdmin)
	return principal, nil
}

// GetByID retrieves a principal by ID.
func (s *PrincipalService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	p, err := s.principals.GetByID(ctx, id)
	if errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// ChangePassword replaces a principal's password hash.
func (s *PrincipalService) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if err := s.checkPolicy(newPassword); err != nil {
		return err
	}

	hash, err := s.verifier.Encode(newPassword)
	if err != nil {
		return err
	}

	return s.update(ctx, id, func(p *domain.Principal) {
		p.PasswordHash = hash
	})
}

// SetEnabled enables or disables sign-in for a principal.
func (s *PrincipalService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	return s.update(ctx, id, func(p *domain.Principal) {
		p.Enabled = enabled
	})
}

// Deactivate permanently blocks a principal from signing in.
func (s *PrincipalService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, func(p *domain.Principal) {
		p.Deactivated = true
	})
}

// EnsureSuperAdmin registers a super admin with email unless one exists.
// It reports whether a principal was created.
func (s *PrincipalService) EnsureSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	exists, err := s.principals.ExistsByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := s.Register(ctx, RegisterInput{Email: email, Password: password, Name: "Administrator", SuperAdmin: true}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PrincipalService) checkPolicy(password string) error {
	if s.policy == nil {
		return nil
	}
	return s.policy.ValidatePassword(password)
}

func (s *PrincipalService) update(ctx context.Context, id uuid.UUID, mutate func(*domain.Principal)) error {
	p, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	mutate(p)
	p.UpdatedAt = time.Now()
	return s.principals.Update(ctx, p)
}
