package escrow

import (
	"strconv"

	"trader/core/events"
	"trader/observability/metrics"
)

// MetricsEmitter updates the escrow counters from committed events, so rolled
// back instructions never count as created or settled trades.
type MetricsEmitter struct{}

// Emit implements events.Emitter.
func (MetricsEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	payload := evt.Event()
	switch evt.EventType() {
	case EventTypeTradeCreated:
		metrics.Escrow().TradeCreated()
	case EventTypeTradeSettled:
		metrics.Escrow().TradeSettled()
		if fee, err := strconv.ParseUint(payload.Attr("fee"), 10, 64); err == nil {
			metrics.Escrow().RecordFee(fee)
		}
	}
}
