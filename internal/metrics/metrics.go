// Package metrics provides Prometheus metrics for conversation turns, the
// HTTP surface and outbound dependency calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed turns by the step they started in and how they ended.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienight_turns_total",
			Help: "Total number of conversation turns",
		},
		[]string{"step", "outcome"},
	)

	// TurnDuration tracks turn latency including dependency calls.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movienight_turn_duration_seconds",
			Help:    "Duration of conversation turns in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"step"},
	)

	// SessionStoreErrorsTotal counts failed session store operations.
	SessionStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienight_session_store_errors_total",
			Help: "Total number of failed session store operations",
		},
		[]string{"operation"},
	)

	// DependencyRequestsTotal counts outbound calls to the data service.
	DependencyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienight_dependency_requests_total",
			Help: "Total number of data service requests",
		},
		[]string{"operation", "result"},
	)

	// BreakerState exposes the data service circuit breaker state (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movienight_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	// HTTPRequestsTotal counts HTTP requests by route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movienight_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)
)

// RecordTurn records one processed turn.
func RecordTurn(step, outcome string, d time.Duration) {
	TurnsTotal.WithLabelValues(step, outcome).Inc()
	TurnDuration.WithLabelValues(step).Observe(d.Seconds())
}

// RecordStoreError records a failed session store operation.
func RecordStoreError(operation string) {
	SessionStoreErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordDependencyRequest records a data service call result ("ok", "error", "rejected").
func RecordDependencyRequest(operation, result string) {
	DependencyRequestsTotal.WithLabelValues(operation, result).Inc()
}

// SetBreakerState records the numeric state of a named circuit breaker.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, statusLabel(status)).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
