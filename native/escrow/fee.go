package escrow

import (
	"github.com/holiman/uint256"
)

const (
	// DefaultFeeBps is the protocol fee, 1% of the offered amount.
	DefaultFeeBps = 100
	// MaxFeeBps is 100%.
	MaxFeeBps = 10_000
)

var (
	bpsDenominator = uint256.NewInt(MaxFeeBps)
	halfDenom      = uint256.NewInt(MaxFeeBps / 2)
)

// Fee returns round-half-up(offer * bps / 10000). The product is computed in
// 256 bits so no offer amount can overflow. bps above MaxFeeBps is clamped.
func Fee(offer uint64, bps uint32) uint64 {
	if bps > MaxFeeBps {
		bps = MaxFeeBps
	}
	v := new(uint256.Int).Mul(uint256.NewInt(offer), uint256.NewInt(uint64(bps)))
	v.Add(v, halfDenom)
	v.Div(v, bpsDenominator)
	return v.Uint64()
}

// SettlementSplit computes the fee charged on the trade leg and what the
// maker receives. The fee is sized from the offer but paid in the trade
// asset, so it must not exceed trade.
func SettlementSplit(offer, trade uint64, bps uint32) (fee, makerProceeds uint64, err error) {
	fee = Fee(offer, bps)
	if fee > trade {
		return 0, 0, ErrValueOverflow
	}
	return fee, trade - fee, nil
}
