package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/tenantgate/pkg/domain"
	"golang.org/x/crypto/bcrypt"
)

func newTestVerifier() *CredentialVerifier {
	return NewCredentialVerifier(bcrypt.MinCost)
}

func TestCredentialVerifier_EncodeVerifyRoundTrip(t *testing.T) {
	v := newTestVerifier()

	passwords := []string{"secret", "Pässwörd-ünïcode", "", strings.Repeat("x", 71)}
	for _, p := range passwords {
		hash, err := v.Encode(p)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"), "hash %q should use canonical prefix", hash)
		assert.True(t, v.Verify(p, hash), "round trip failed for %q", p)
		assert.False(t, v.Verify(p+"x", hash), "different password verified for %q", p)
	}
}

func TestCredentialVerifier_WrongPassword(t *testing.T) {
	v := newTestVerifier()
	hash, err := v.Encode("secret")
	require.NoError(t, err)

	assert.False(t, v.Verify("wrong", hash))
	assert.False(t, v.Verify("Secret", hash))
}

func TestCredentialVerifier_LegacyPrefix(t *testing.T) {
	v := newTestVerifier()
	hash, err := v.Encode("secret")
	require.NoError(t, err)

	legacy := "$2y$" + hash[len("$2a$"):]
	assert.Equal(t, DialectLegacy, v.Dialect(legacy))
	assert.Equal(t, hash, v.Normalize(legacy))
	assert.True(t, v.Verify("secret", legacy))
	assert.False(t, v.Verify("wrong", legacy))
}

func TestCredentialVerifier_OverlongPasswordNeverMatches(t *testing.T) {
	v := newTestVerifier()
	prefix := strings.Repeat("a", 72)
	hash, err := v.Encode(prefix)
	require.NoError(t, err)

	assert.True(t, v.Verify(prefix, hash))
	assert.False(t, v.Verify(prefix+"a", hash), "bytes past 72 must not be ignored")
	assert.False(t, v.Verify(prefix+"b", "$2y$"+hash[len("$2a$"):]))
}

func TestCredentialVerifier_EmptyStoredHash(t *testing.T) {
	v := newTestVerifier()
	assert.False(t, v.Verify("anything", ""))
	assert.False(t, v.Verify("", ""))
}

func TestCredentialVerifier_MalformedStoredHash(t *testing.T) {
	v := newTestVerifier()

	inputs := []string{"plaintext", "$2y$", "$2a$10$short", "$argon2id$v=19$m=65536,t=1,p=4$abc$def"}
	for _, stored := range inputs {
		assert.NotPanics(t, func() {
			assert.False(t, v.Verify("plaintext", stored))
		}, "stored=%q", stored)
	}
}

func TestCredentialVerifier_Dialect(t *testing.T) {
	v := newTestVerifier()

	tests := []struct {
		stored string
		want   Dialect
	}{
		{stored: "$2a$10$abcdefghijklmnopqrstuu", want: DialectCanonical},
		{stored: "$2y$10$abcdefghijklmnopqrstuu", want: DialectLegacy},
		{stored: "$2b$10$abcdefghijklmnopqrstuu", want: DialectUnknown},
		{stored: "", want: DialectUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.want.String()+"/"+tt.stored, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Dialect(tt.stored))
		})
	}

	assert.Equal(t, "$2b$10$x", v.Normalize("$2b$10$x"))
}

func TestCredentialVerifier_EncodeTooLong(t *testing.T) {
	v := newTestVerifier()

	_, err := v.Encode(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestNewCredentialVerifier_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewCredentialVerifier(0).cost)
}
