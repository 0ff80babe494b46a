package auth

import (
	"strings"

	"github.com/tendant/tenantgate/pkg/domain"
	"golang.org/x/crypto/bcrypt"
)

// Dialect identifies the bcrypt prefix a stored hash was written with.
type Dialect int

const (
	DialectUnknown Dialect = iota
	// DialectCanonical is the "$2a$" prefix this service writes.
	DialectCanonical
	// DialectLegacy is the "$2y$" prefix written by the legacy PHP stack.
	DialectLegacy
)

const (
	canonicalPrefix = "$2a$"
	legacyPrefix    = "$2y$"

	// bcrypt ignores input past this length.
	maxPasswordBytes = 72
)

func (d Dialect) String() string {
	switch d {
	case DialectCanonical:
		return "canonical"
	case DialectLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// CredentialVerifier compares plaintext passwords with stored bcrypt hashes
// and produces new hashes.
type CredentialVerifier struct {
	cost int
}

// NewCredentialVerifier creates a verifier hashing at cost. A zero cost
// selects bcrypt.DefaultCost.
func NewCredentialVerifier(cost int) *CredentialVerifier {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialVerifier{cost: cost}
}

// Dialect reports which prefix stored uses.
func (v *CredentialVerifier) Dialect(stored string) Dialect {
	switch {
	case strings.HasPrefix(stored, canonicalPrefix):
		return DialectCanonical
	case strings.HasPrefix(stored, legacyPrefix):
		return DialectLegacy
	default:
		return DialectUnknown
	}
}

// Normalize rewrites a legacy prefix to the canonical one. Cost and salt are
// left untouched; any other input is returned as is.
func (v *CredentialVerifier) Normalize(stored string) string {
	if v.Dialect(stored) == DialectLegacy {
		return canonicalPrefix + stored[len(legacyPrefix):]
	}
	return stored
}

// Verify reports whether plain matches stored. An empty or malformed stored
// hash never matches, and neither does a password longer than bcrypt reads,
// since its tail would be ignored.
func (v *CredentialVerifier) Verify(plain, stored string) bool {
	if stored == "" || len(plain) > maxPasswordBytes {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(v.Normalize(stored)), []byte(plain))
	return err == nil
}

// Encode hashes plain in the canonical dialect.
func (v *CredentialVerifier) Encode(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", domain.NewError(domain.KindValidation, "password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), v.cost)
	if err != nil {
		return "", domain.WrapError(err, domain.KindInternal, "could not hash password")
	}
	return string(hash), nil
}
