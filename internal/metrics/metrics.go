package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for access decisions and the HTTP surface.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AccessDecisions *prometheus.CounterVec
	LoginAttempts   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers collectors on reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AccessDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_access_decisions_total",
			Help: "Access decisions by scope and outcome",
		}, []string{"scope", "outcome"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenantgate_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveAccessDecision counts one guard decision.
func (m *Metrics) ObserveAccessDecision(scope, outcome string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(scope, outcome).Inc()
}

// ObserveLogin counts one login attempt.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}
