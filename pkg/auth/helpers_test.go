package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/repository/memstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	stores   repository.Stores
	verifier *CredentialVerifier
	tokens   *TokenService
}

func newFixture() *fixture {
	return &fixture{
		stores:   memstore.New(),
		verifier: newTestVerifier(),
		tokens:   newTestTokenService(),
	}
}

func (f *fixture) addPrincipal(t *testing.T, email, password string, mutate func(*domain.Principal)) *domain.Principal {
	t.Helper()
	hash, err := f.verifier.Encode(password)
	require.NoError(t, err)
	p := &domain.Principal{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Enabled:      true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, f.stores.Principals.Create(context.Background(), p))
	return p
}

func (f *fixture) grant(t *testing.T, p *domain.Principal, tenantID uuid.UUID, role domain.Role) {
	t.Helper()
	require.NoError(t, f.stores.Memberships.Create(context.Background(), &domain.Membership{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PrincipalID: p.ID,
		Role:        role,
		Status:      domain.MembershipStatusActive,
	}))
}
