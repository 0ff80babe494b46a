package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tendant/tenantgate/gate"
	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/pkg/repository"
	"github.com/tendant/tenantgate/pkg/repository/memstore"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	stores, db, err := openStores(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	g, err := gate.New(gate.Config{
		Stores:            stores,
		JWTSecret:         cfg.JWTSecret,
		JWTIssuer:         cfg.JWTIssuer,
		TokenTTL:          cfg.TokenTTL,
		BcryptCost:        cfg.BcryptCost,
		SuperAdminBypass:  cfg.SuperAdminBypass,
		ArchiveReversible: cfg.ArchiveReversible,
		RateLimit:         cfg.RateLimit,
		SecurityHeaders:   cfg.SecurityHeaders,
		Validation:        cfg.Validation,
		PasswordPolicy:    cfg.PasswordPolicy,
		Registerer:        reg,
		Gatherer:          reg,
		Logger:            logger,
	})
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	if cfg.HasBootstrapAdmin() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := g.EnsureSuperAdmin(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		cancel()
		if err != nil {
			logger.Error("failed to bootstrap super admin", "error", err)
			os.Exit(1)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      g.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// openStores returns the configured backend. The returned *sql.DB is nil for
// the memory store.
func openStores(cfg *config.Config, logger *slog.Logger) (repository.Stores, *sql.DB, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil, nil
	}

	db, err := repository.Open(cfg.DatabaseURL())
	if err != nil {
		return repository.Stores{}, nil, err
	}
	logger.Info("connected to database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return repository.Stores{}, nil, fmt.Errorf("migrate: %w", err)
	}

	return repository.NewStores(db), db, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
