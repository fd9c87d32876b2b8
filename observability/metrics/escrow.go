package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics tracks committed escrow activity. Every series is either
// unlabelled or labelled from a closed set, since mints are permissionless.
type EscrowMetrics struct {
	instructions  *prometheus.CounterVec
	fees          prometheus.Counter
	tradesCreated prometheus.Counter
	tradesSettled prometheus.Counter
}

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics
)

func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = newEscrowMetrics()
		prometheus.MustRegister(escrowRegistry.collectors()...)
	})
	return escrowRegistry
}

func newEscrowMetrics() *EscrowMetrics {
	return &EscrowMetrics{
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_escrow_instructions_total",
			Help: "Escrow instructions by variant, outcome and error code.",
		}, []string{"instruction", "outcome", "code"}),
		fees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_escrow_fees_total",
			Help: "Protocol fees charged in trade-mint base units across all mints.",
		}),
		tradesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_escrow_trades_created_total",
			Help: "Trades opened since process start.",
		}),
		tradesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_escrow_trades_settled_total",
			Help: "Trades settled since process start.",
		}),
	}
}

func (m *EscrowMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.instructions, m.fees, m.tradesCreated, m.tradesSettled}
}

// RecordInstruction counts an escrow instruction outcome. An empty code
// marks success.
func (m *EscrowMetrics) RecordInstruction(instruction, code string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if code != "" {
		outcome = "error"
	}
	m.instructions.WithLabelValues(instruction, outcome, code).Inc()
}

func (m *EscrowMetrics) RecordFee(amount uint64) {
	if m == nil {
		return
	}
	m.fees.Add(float64(amount))
}

func (m *EscrowMetrics) TradeCreated() {
	if m == nil {
		return
	}
	m.tradesCreated.Inc()
}

func (m *EscrowMetrics) TradeSettled() {
	if m == nil {
		return
	}
	m.tradesSettled.Inc()
}
