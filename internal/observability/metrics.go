package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	rateLimitDecisionsTotal *prometheus.CounterVec
	rateLimitDegradedTotal  prometheus.Counter
	activityLogWritesTotal  *prometheus.CounterVec
	analyticsLatencySeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		rateLimitDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limiter outcomes, labelled allowed or denied.",
		}, []string{"outcome"})

		rateLimitDegradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_degraded_checks_total",
			Help: "Checks resolved by the fail-open policy because the counter backend was unavailable.",
		})

		activityLogWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_log_writes_total",
			Help: "Activity log write attempts, labelled written, failed or skipped.",
		}, []string{"status"})

		analyticsLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "instructor_analytics_latency_seconds",
			Help:    "Latency distribution for instructor revenue aggregation.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			rateLimitDecisionsTotal,
			rateLimitDegradedTotal,
			activityLogWritesTotal,
			analyticsLatencySeconds,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// RateLimitDecisions exposes the counter for limiter outcomes.
func RateLimitDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return rateLimitDecisionsTotal
}

// RateLimitDegraded exposes the counter for fail-open checks.
func RateLimitDegraded() prometheus.Counter {
	RegisterMetrics()
	return rateLimitDegradedTotal
}

// ActivityLogWrites exposes the counter for audit write attempts.
func ActivityLogWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return activityLogWritesTotal
}

// AnalyticsLatency exposes the histogram for revenue aggregation latency.
func AnalyticsLatency() prometheus.Histogram {
	RegisterMetrics()
	return analyticsLatencySeconds
}
