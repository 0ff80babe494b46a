package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/internal/http/features/facility"
	"github.com/tendant/tenantgate/internal/http/features/me"
	"github.com/tendant/tenantgate/internal/http/features/session"
	"github.com/tendant/tenantgate/internal/http/features/tenants"
	"github.com/tendant/tenantgate/internal/http/middleware"
	"github.com/tendant/tenantgate/internal/httputil"
	"github.com/tendant/tenantgate/internal/metrics"
	"github.com/tendant/tenantgate/pkg/access"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/domain"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger                *slog.Logger
	Metrics               *metrics.Metrics
	MetricsGatherer       prometheus.Gatherer
	Guard                 *access.Guard
	Resolver              *auth.PrincipalResolver
	AuthenticationService *auth.AuthenticationService
	PrincipalService      *auth.PrincipalService
	CredentialVerifier    *auth.CredentialVerifier
	Provisioner           *tenancy.Provisioner
	Facilities            repository.FacilityStore
	RateLimitConfig       config.RateLimitConfig
	SecurityHeaders       config.SecurityHeadersConfig
	Validation            config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger, cfg.Metrics))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, cfg.Logger, domain.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	limiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	authenticated := middleware.Authenticated(cfg.Resolver)

	// Session
	sessionHandler := session.NewHandler(cfg.AuthenticationService, cfg.Logger)
	r.With(limiters.Login).Post("/v1/auth/login", sessionHandler.Login)
	r.With(authenticated).Post("/v1/auth/logout", sessionHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(limiters.API)

		// Caller profile
		meHandler := me.NewHandler(cfg.Logger, cfg.PrincipalService, cfg.CredentialVerifier)
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/v1/me", meHandler.GetMe)
			r.Put("/v1/me/password", meHandler.ChangePassword)
		})

		// Facilities
		facilityHandler := facility.NewHandler(cfg.Facilities, cfg.Logger)
		r.Route("/v1/admin/modules/{moduleKey}/facilities", func(r chi.Router) {
			r.Use(middleware.AdminModule(cfg.Guard, domain.RoleCompanyAdmin, domain.RoleCompanyAuthor))
			r.Get("/", facilityHandler.AdminList)
			r.Post("/", facilityHandler.Create)
			r.Get("/{facilityKey}", facilityHandler.AdminGet)
			r.Patch("/{facilityKey}", facilityHandler.Update)
			r.Delete("/{facilityKey}", facilityHandler.Delete)
		})
		r.Route("/v1/public/facilities", func(r chi.Router) {
			r.Use(middleware.PublicHost(cfg.Guard, domain.ModuleEducation))
			r.Get("/", facilityHandler.PublicList)
			r.Get("/{facilityKey}", facilityHandler.PublicGet)
		})
		r.Route("/v1/public/modules/{moduleKey}/facilities", func(r chi.Router) {
			r.Use(middleware.PublicModule(cfg.Guard))
			r.Get("/", facilityHandler.PublicList)
			r.Get("/{facilityKey}", facilityHandler.PublicGet)
		})

		// Provisioning
		tenantsHandler := tenants.NewHandler(cfg.Provisioner, cfg.PrincipalService, cfg.Logger)
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireSuperAdmin())

			r.Post("/v1/admin/tenants", tenantsHandler.CreateTenant)
			r.Route("/v1/admin/tenants/{tenantID}", func(r chi.Router) {
				r.Get("/", tenantsHandler.GetTenant)
				r.Patch("/", tenantsHandler.UpdateTenant)
				r.Get("/tree", tenantsHandler.Tree)
				r.Post("/archive", tenantsHandler.ArchiveTenant)
				r.Post("/restore", tenantsHandler.RestoreTenant)
				r.Get("/modules", tenantsHandler.ListModules)
				r.Post("/modules", tenantsHandler.AddModule)
				r.Get("/members", tenantsHandler.ListMembers)
				r.Post("/members", tenantsHandler.GrantRole)
				r.Delete("/members/{principalID}/{role}", tenantsHandler.RevokeRole)
			})
			r.Route("/v1/admin/module-instances/{moduleKey}", func(r chi.Router) {
				r.Patch("/", tenantsHandler.UpdateModule)
				r.Post("/archive", tenantsHandler.ArchiveModule)
				r.Post("/restore", tenantsHandler.RestoreModule)
				r.Get("/menus", tenantsHandler.Menus)
				r.Patch("/menus/{menuKey}", tenantsHandler.SetMenuParent)
			})
			r.Post("/v1/admin/principals", tenantsHandler.CreatePrincipal)
			r.Patch("/v1/admin/principals/{principalID}", tenantsHandler.UpdatePrincipal)
		})
	})

	return r
}
