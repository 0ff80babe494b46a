package middleware

import (
	"net/http"

	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/pkg/domain"
)

// RequireSuperAdmin restricts provisioning endpoints to super admins.
// It must be applied after Authenticated.
//
// Example usage:
//
//	r.With(middleware.Authenticated(resolver), middleware.RequireSuperAdmin()).
//	  Post("/v1/admin/tenants", tenants.Create)
func RequireSuperAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				httputil.WriteError(w, nil, domain.ErrUnauthenticated)
				return
			}
			if !identity.Principal.SuperAdmin {
				httputil.WriteError(w, nil, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
