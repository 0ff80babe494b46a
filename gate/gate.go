// Package gate assembles the multi-tenant access-control core into a
// mountable HTTP handler.
//
// Basic usage:
//
//	db, _ := repository.Open("postgres://localhost/tenantgate?sslmode=disable")
//	_ = repository.Migrate(ctx, db)
//
//	g, err := gate.New(gate.Config{
//	    Stores:    repository.NewStores(db),
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", g.Handler())
//
// For tests and local development the in-memory stores can be used instead:
//
//	g, err := gate.New(gate.Config{Stores: memstore.New(), JWTSecret: secret})
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/tenantgate/internal/config"
	httpserver "github.com/tendant/tenantgate/internal/http"
	"github.com/tendant/tenantgate/internal/metrics"
	"github.com/tendant/tenantgate/pkg/access"
	"github.com/tendant/tenantgate/pkg/auth"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/tenancy"
)

const minJWTSecretLength = 32

// Settings groups re-exported from the environment configuration so callers
// outside this module can fill them in.
type (
	RateLimitConfig       = config.RateLimitConfig
	SecurityHeadersConfig = config.SecurityHeadersConfig
	ValidationConfig      = config.ValidationConfig
	PasswordPolicyConfig  = config.PasswordPolicyConfig
)

// Config holds the configuration for a Gate.
type Config struct {
	// Stores holds the persistence backends (required).
	Stores repository.Stores

	// JWTSecret is the secret key for signing tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in tokens (default: "tenantgate").
	JWTIssuer string

	// TokenTTL is the lifetime of access tokens (default: 12 hours).
	TokenTTL time.Duration

	// BcryptCost is the cost for new password hashes (default: bcrypt.DefaultCost).
	BcryptCost int

	// SuperAdminBypass lets super admins pass tenant role checks.
	SuperAdminBypass bool

	// ArchiveReversible allows archived tenants and instances to be restored.
	ArchiveReversible bool

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
	PasswordPolicy  PasswordPolicyConfig

	// Registerer receives the Prometheus collectors. When nil a private
	// registry is created and served on /metrics.
	Registerer prometheus.Registerer

	// Gatherer backs /metrics. Defaults to the private registry when
	// Registerer is nil; /metrics is not mounted otherwise.
	Gatherer prometheus.Gatherer

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Gate is an assembled access-control core.
type Gate struct {
	config      Config
	stores      repository.Stores
	principals  *auth.PrincipalService
	authService *auth.AuthenticationService
	provisioner *tenancy.Provisioner
	directory   *tenancy.Directory
	guard       *access.Guard
	handler     http.Handler
}

// New creates a new Gate with the given configuration.
func New(cfg Config) (*Gate, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	m := metrics.New(cfg.Registerer)

	verifier := auth.NewCredentialVerifier(cfg.BcryptCost)
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})

	principals := auth.NewPrincipalService(
		cfg.Stores.Principals,
		verifier,
		auth.NewPasswordPolicy(cfg.PasswordPolicy),
		cfg.Validation.StrictEmailValidation,
		cfg.Validation.BlockDisposableEmail,
		cfg.Logger,
	)
	authService, err := auth.NewAuthenticationService(cfg.Stores.Principals, cfg.Stores.Memberships, verifier, tokens, m, cfg.Logger)
	if err != nil {
		return nil, err
	}

	resolver := auth.NewPrincipalResolver(tokens, cfg.Stores.Principals, cfg.Stores.Memberships, cfg.Logger)
	directory := tenancy.NewDirectory(cfg.Stores.Tenants, cfg.Stores.Modules, cfg.Logger)
	guard := access.NewGuard(resolver, directory, access.Options{SuperAdminBypass: cfg.SuperAdminBypass}, m, cfg.Logger)
	provisioner := tenancy.NewProvisioner(cfg.Stores, tenancy.Policy{ArchiveReversible: cfg.ArchiveReversible}, cfg.Logger)

	handler := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:                cfg.Logger,
		Metrics:               m,
		MetricsGatherer:       cfg.Gatherer,
		Guard:                 guard,
		Resolver:              resolver,
		AuthenticationService: authService,
		PrincipalService:      principals,
		CredentialVerifier:    verifier,
		Provisioner:           provisioner,
		Facilities:            cfg.Stores.Facilities,
		RateLimitConfig:       cfg.RateLimit,
		SecurityHeaders:       cfg.SecurityHeaders,
		Validation:            cfg.Validation,
	})

	return &Gate{
		config:      cfg,
		stores:      cfg.Stores,
		principals:  principals,
		authService: authService,
		provisioner: provisioner,
		directory:   directory,
		guard:       guard,
		handler:     handler,
	}, nil
}

// Handler returns the HTTP handler serving every route.
func (g *Gate) Handler() http.Handler {
	return g.handler
}

// Stores returns the persistence backends the gate was built with.
func (g *Gate) Stores() repository.Stores {
	return g.stores
}

// Provisioner returns the tenant provisioner for programmatic setup.
func (g *Gate) Provisioner() *tenancy.Provisioner {
	return g.provisioner
}

// Principals returns the principal service.
func (g *Gate) Principals() *auth.PrincipalService {
	return g.principals
}

// Authentication returns the login service.
func (g *Gate) Authentication() *auth.AuthenticationService {
	return g.authService
}

// Guard returns the module access guard for protecting custom routes.
func (g *Gate) Guard() *access.Guard {
	return g.guard
}

// EnsureSuperAdmin creates a super admin with email and password unless a
// principal with that email already exists.
func (g *Gate) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	created, err := g.principals.EnsureSuperAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	if created {
		g.config.Logger.Info("bootstrap super admin created", "email", email)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	s := cfg.Stores
	if s.Tenants == nil || s.Modules == nil || s.Principals == nil || s.Memberships == nil || s.Facilities == nil || s.Menus == nil {
		return errors.New("gate: every store is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("gate: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return errors.New("gate: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "tenantgate"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	if cfg.Registerer == nil {
		reg := prometheus.NewRegistry()
		cfg.Registerer = reg
		if cfg.Gatherer == nil {
			cfg.Gatherer = reg
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}
