package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/tenantgate/internal/config"
	"github.com/tendant/tenantgate/internal/httputil"
)

// RateLimitConfig holds rate limiting configuration for one route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// Limiters are the rate limiters applied by the router.
type Limiters struct {
	Login func(http.Handler) http.Handler
	API   func(http.Handler) http.Handler
}

// CreateRateLimiters creates rate limiting middleware based on configuration.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) Limiters {
	if !cfg.Enabled {
		return Limiters{Login: NoRateLimit(), API: NoRateLimit()}
	}

	return Limiters{
		Login: RateLimit(RateLimitConfig{
			Requests: cfg.LoginRequestsPerWindow,
			Window:   cfg.LoginWindow,
			Logger:   logger,
		}),
		API: RateLimit(RateLimitConfig{
			Requests: cfg.APIRequestsPerWindow,
			Window:   cfg.APIWindow,
			Logger:   logger,
		}),
	}
}
