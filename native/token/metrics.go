package token

import (
	"trader/core/events"
	"trader/observability"
)

// MetricsEmitter counts committed token transfers.
type MetricsEmitter struct{}

// Emit implements events.Emitter.
func (MetricsEmitter) Emit(evt events.Event) {
	if _, ok := evt.(events.TokenTransfer); ok {
		observability.Events().RecordTransfer()
	}
}
