package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/access"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

type contextKey string

const (
	// AuthContextKey is the context key for the resolved *access.AuthContext.
	AuthContextKey contextKey = "auth_context"
	// IdentityKey is the context key for the verified *auth.Identity.
	IdentityKey contextKey = "identity"
)

// ModuleKeyParam is the chi URL parameter holding a module instance key.
const ModuleKeyParam = "moduleKey"

// AdminModule authorizes admin routes mounted under {moduleKey}. The caller
// must present a bearer token and hold one of roles in the tenant owning the
// module instance.
func AdminModule(guard *access.Guard, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := guard.AuthenticateModule(r.Context(), chi.URLParam(r, ModuleKeyParam), httputil.BearerToken(r), roles...)
			if err != nil {
				httputil.WriteError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AuthContextKey, ac)))
		})
	}
}

// PublicModule resolves public routes mounted under {moduleKey}.
func PublicModule(guard *access.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := guard.CheckAuthentication(r.Context(), tenancy.Lookup{Key: chi.URLParam(r, ModuleKeyParam)})
			if err != nil {
				httputil.WriteError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AuthContextKey, ac)))
		})
	}
}

// PublicHost resolves public routes from the request host and switches to
// the same tenant's module instance of kind.
func PublicHost(guard *access.Guard, kind domain.ModuleKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, err := guard.CheckModuleKind(r.Context(), tenancy.Lookup{Host: r.Host}, kind)
			if err != nil {
				httputil.WriteError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AuthContextKey, ac)))
		})
	}
}

// Authenticated requires a valid bearer token naming an active principal.
// It is used by routes that are not scoped to a module instance.
func Authenticated(identities access.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identities.Resolve(r.Context(), httputil.BearerToken(r))
			if err != nil {
				httputil.WriteError(w, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), IdentityKey, identity)))
		})
	}
}

// AuthContextFrom extracts the AuthContext set by AdminModule, PublicModule
// or PublicHost.
func AuthContextFrom(ctx context.Context) (*access.AuthContext, bool) {
	ac, ok := ctx.Value(AuthContextKey).(*access.AuthContext)
	return ac, ok
}

// IdentityFrom extracts the identity set by Authenticated.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*auth.Identity)
	return identity, ok
}
