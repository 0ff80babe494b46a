package auth

import (
	"strings"
	"testing"

	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/pkg/domain"
)

func TestPasswordPolicy_ValidatePassword(t *testing.T) {
	strict := &PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	tests := []struct {
		name     string
		policy   *PasswordPolicy
		password string
		wantErr  bool
	}{
		{name: "empty policy accepts anything", policy: &PasswordPolicy{}, password: "a", wantErr: false},
		{name: "meets every rule", policy: strict, password: "Str0ng!pass", wantErr: false},
		{name: "too short", policy: strict, password: "S0!a", wantErr: true},
		{name: "no uppercase", policy: strict, password: "str0ng!pass", wantErr: true},
		{name: "no lowercase", policy: strict, password: "STR0NG!PASS", wantErr: true},
		{name: "no number", policy: strict, password: "Strong!pass", wantErr: true},
		{name: "no special", policy: strict, password: "Str0ngpass1", wantErr: true},
		{name: "multibyte counts as characters", policy: &PasswordPolicy{MinLength: 4}, password: "ééé", wantErr: true},
		{name: "over bcrypt limit", policy: &PasswordPolicy{}, password: strings.Repeat("a", 73), wantErr: true},
		{name: "exactly bcrypt limit", policy: &PasswordPolicy{}, password: strings.Repeat("a", 72), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
			if err != nil && domain.KindOf(err) != domain.KindValidation {
				t.Errorf("ValidatePassword(%q) kind = %q, want %q", tt.password, domain.KindOf(err), domain.KindValidation)
			}
		})
	}
}

func TestNewPasswordPolicy(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordPolicyConfig{
		MinLength:        12,
		RequireUppercase: true,
		RequireNumber:    true,
	})

	if policy.MinLength != 12 {
		t.Errorf("MinLength = %d, want 12", policy.MinLength)
	}
	if !policy.RequireUppercase || !policy.RequireNumber {
		t.Error("configured requirements were not copied")
	}
	if policy.RequireLowercase || policy.RequireSpecial {
		t.Error("unset requirements should stay false")
	}
	if !policy.HasRequirements() {
		t.Error("HasRequirements() = false, want true")
	}
	if (&PasswordPolicy{}).HasRequirements() {
		t.Error("empty policy should have no requirements")
	}
}
