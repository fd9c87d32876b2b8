package escrow

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"trader/core/types"
)

const (
	EventTypeTradeCreated = "escrow.trade.created"
	EventTypeTradeSettled = "escrow.trade.settled"
)

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// NewTradeCreatedEvent returns the canonical payload for a newly locked
// offer.
func NewTradeCreatedEvent(record solana.PublicKey, rec Record, custodian solana.PublicKey) *types.Event {
	attrs := recordAttrs(record, rec)
	attrs["custodian"] = custodian.String()
	attrs["bump"] = strconv.FormatUint(uint64(rec.BumpSeed), 10)
	return &types.Event{Type: EventTypeTradeCreated, Attributes: attrs}
}

// NewTradeSettledEvent returns the canonical payload for a completed swap.
func NewTradeSettledEvent(record solana.PublicKey, rec Record, taker solana.PublicKey, fee, refund uint64) *types.Event {
	attrs := recordAttrs(record, rec)
	attrs["taker"] = taker.String()
	attrs["fee"] = strconv.FormatUint(fee, 10)
	attrs["refund"] = strconv.FormatUint(refund, 10)
	return &types.Event{Type: EventTypeTradeSettled, Attributes: attrs}
}

func recordAttrs(record solana.PublicKey, rec Record) map[string]string {
	return map[string]string{
		"record":       record.String(),
		"maker":        rec.Authority.String(),
		"offerAccount": rec.OfferAccount.String(),
		"offerAmount":  strconv.FormatUint(rec.OfferAmount, 10),
		"tradeMint":    rec.TradeMint.String(),
		"tradeAmount":  strconv.FormatUint(rec.TradeAmount, 10),
	}
}
