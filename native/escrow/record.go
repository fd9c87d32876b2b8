package escrow

import (
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/native/common"
)

// RecordSize is the encoded length of a Record and the exact allocation
// required for a record account.
const RecordSize = 1 + 32 + 32 + 8 + 8 + 1 + 32 + 32

// Record is the persistent state of one pending trade.
type Record struct {
	BumpSeed     uint8
	OfferAccount solana.PublicKey
	// Authority is the maker. It alone receives the refund and regains
	// control of the offer account on settlement.
	Authority   solana.PublicKey
	OfferAmount uint64
	TradeAmount uint64
	Initialized bool
	TradeMint   solana.PublicKey
	ProgramID   solana.PublicKey
}

// Pack encodes the record in its fixed layout.
func (r Record) Pack() []byte {
	return common.NewWriter().
		U8(r.BumpSeed).
		Key(r.OfferAccount).
		Key(r.Authority).
		U64(r.OfferAmount).
		U64(r.TradeAmount).
		Bool(r.Initialized).
		Key(r.TradeMint).
		Key(r.ProgramID).
		Bytes()
}

// UnpackRecord decodes a record. The data must be exactly RecordSize bytes;
// an all-zero buffer decodes as an uninitialized record.
func UnpackRecord(data []byte) (Record, error) {
	if len(data) != RecordSize {
		return Record{}, trerrors.ErrInvalidAccountData
	}
	r := common.NewReader(data)
	rec := Record{
		BumpSeed:     r.U8(),
		OfferAccount: r.Key(),
		Authority:    r.Key(),
		OfferAmount:  r.U64(),
		TradeAmount:  r.U64(),
		Initialized:  r.Bool(),
		TradeMint:    r.Key(),
		ProgramID:    r.Key(),
	}
	if err := r.Finish(); err != nil {
		return Record{}, trerrors.ErrInvalidAccountData
	}
	return rec, nil
}
