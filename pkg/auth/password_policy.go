package auth

import (
	"fmt"
	"unicode"

	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/pkg/domain"
)

// PasswordPolicy defines password complexity requirements applied when a
// password is set. Login never re-checks the policy.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns a validation error describing the first unmet
// requirement.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	switch {
	case len(password) > maxPasswordBytes:
		return domain.NewError(domain.KindValidation, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	case p.MinLength > 0 && len([]rune(password)) < p.MinLength:
		return domain.NewError(domain.KindValidation, fmt.Sprintf("password must be at least %d characters long", p.MinLength))
	case p.RequireUppercase && !containsAny(password, unicode.IsUpper):
		return domain.NewError(domain.KindValidation, "password must contain at least one uppercase letter")
	case p.RequireLowercase && !containsAny(password, unicode.IsLower):
		return domain.NewError(domain.KindValidation, "password must contain at least one lowercase letter")
	case p.RequireNumber && !containsAny(password, unicode.IsDigit):
		return domain.NewError(domain.KindValidation, "password must contain at least one number")
	case p.RequireSpecial && !containsAny(password, isSpecial):
		return domain.NewError(domain.KindValidation, "password must contain at least one special character")
	}
	return nil
}

// HasRequirements returns true if the policy has any requirements.
func (p *PasswordPolicy) HasRequirements() bool {
	return p.MinLength > 0 || p.RequireUppercase || p.RequireLowercase || p.RequireNumber || p.RequireSpecial
}

func containsAny(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
