package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	backendCallsTotal     *prometheus.CounterVec
	backendLatencySeconds *prometheus.HistogramVec
	loginAttemptsTotal    *prometheus.CounterVec
	activationsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		backendCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_backend_calls_total",
			Help: "Calls made to the hosted document and auth backend.",
		}, []string{"operation", "outcome"})

		backendLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_backend_latency_seconds",
			Help:    "Latency distribution for backend calls.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"})

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by portal and outcome.",
		}, []string{"role", "outcome"})

		activationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_permission_activations_total",
			Help: "Student permission activations by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			backendCallsTotal,
			backendLatencySeconds,
			loginAttemptsTotal,
			activationsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// BackendCalls exposes the counter for backend calls.
func BackendCalls() *prometheus.CounterVec {
	RegisterMetrics()
	return backendCallsTotal
}

// BackendLatency exposes the latency histogram for backend calls.
func BackendLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return backendLatencySeconds
}

// LoginAttempts exposes the login attempt counter.
func LoginAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return loginAttemptsTotal
}

// PermissionActivations exposes the activation counter.
func PermissionActivations() *prometheus.CounterVec {
	RegisterMetrics()
	return activationsTotal
}
