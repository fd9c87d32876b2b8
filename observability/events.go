package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	transfers prometheus.Counter
	emitted   *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "events",
				Name:      "token_transfers_total",
				Help:      "Count of committed token transfers across all mints.",
			}),
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trader",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordTransfer counts a committed token transfer. Mints are created
// permissionlessly, so the counter carries no mint label.
func (m *eventMetrics) RecordTransfer() {
	if m == nil {
		return
	}
	m.transfers.Inc()
}

// RecordEmitted counts an event delivered after commit.
func (m *eventMetrics) RecordEmitted(eventType string) {
	if m == nil {
		return
	}
	m.emitted.WithLabelValues(normaliseLabel(eventType)).Inc()
}
