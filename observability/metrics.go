package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

type runtimeMetrics struct {
	transactions *prometheus.CounterVec
	duration     prometheus.Histogram
	instructions *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	runtimeMetricsOnce sync.Once
	runtimeRegistry    *runtimeMetrics
)

// ModuleMetrics returns the lazily-initialised registry used to record
// JSON-RPC method activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by method and JSON-RPC error code.",
			}, []string{"method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "trader",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC request. code is the JSON-RPC
// error code, or empty on success.
func (m *moduleMetrics) Observe(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	method = normaliseLabel(method)
	outcome := "success"
	if code != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, code).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	if duration > 0 {
		m.latency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// RecordThrottle increments the throttle counter for the supplied reason.
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(normaliseLabel(reason)).Inc()
}

// Runtime returns the registry tracking transaction execution.
func Runtime() *runtimeMetrics {
	runtimeMetricsOnce.Do(func() {
		runtimeRegistry = &runtimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "runtime",
				Name:      "transactions_total",
				Help:      "Processed transactions segmented by outcome.",
			}, []string{"outcome"}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "trader",
				Subsystem: "runtime",
				Name:      "transaction_duration_seconds",
				Help:      "Wall time spent executing and committing a transaction.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			}),
			instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "runtime",
				Name:      "instructions_total",
				Help:      "Executed instructions, including cross-program invocations, by program.",
			}, []string{"program", "depth"}),
		}
		prometheus.MustRegister(
			runtimeRegistry.transactions,
			runtimeRegistry.duration,
			runtimeRegistry.instructions,
		)
	})
	return runtimeRegistry
}

// ObserveTransaction records a transaction outcome ("committed", "failed",
// "rejected") and its duration.
func (m *runtimeMetrics) ObserveTransaction(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(normaliseLabel(outcome)).Inc()
	if duration > 0 {
		m.duration.Observe(duration.Seconds())
	}
}

// RecordInstruction counts one program invocation at the given call depth.
func (m *runtimeMetrics) RecordInstruction(program string, depth int) {
	if m == nil {
		return
	}
	label := "top"
	if depth > 0 {
		label = "cpi"
	}
	m.instructions.WithLabelValues(normaliseLabel(program), label).Inc()
}

func normaliseLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}
