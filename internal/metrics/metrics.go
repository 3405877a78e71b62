package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login attempt results
const (
	LoginSuccess     = "success"
	LoginInvalid     = "invalid"
	LoginUnavailable = "unavailable"
)

// Collector holds all Prometheus metrics for the member portal.
type Collector struct {
	loginAttempts   *prometheus.CounterVec
	gatewayFailures *prometheus.CounterVec
	loanRequests    *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socios_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		gatewayFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socios_gateway_failures_total",
				Help: "Failed persistence gateway calls by operation and failure kind",
			},
			[]string{"op", "kind"},
		),
		loanRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socios_loan_requests_total",
				Help: "Loan requests by result",
			},
			[]string{"result"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "socios_active_sessions",
				Help: "Sessions currently held by the session store",
			},
		),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.gatewayFailures,
		c.loanRequests,
		c.activeSessions,
	)

	return c
}

// LoginAttempt counts a login attempt with one of the Login* results.
func (c *Collector) LoginAttempt(result string) {
	c.loginAttempts.WithLabelValues(result).Inc()
}

// GatewayFailure counts a failed gateway call.
func (c *Collector) GatewayFailure(op, kind string) {
	c.gatewayFailures.WithLabelValues(op, kind).Inc()
}

// LoanRequest counts a loan request outcome (accepted, rejected, failed).
func (c *Collector) LoanRequest(result string) {
	c.loanRequests.WithLabelValues(result).Inc()
}

// SetActiveSessions sets the session gauge.
func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}
