package escrow

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/types"
	"trader/native/common"
)

const (
	tagCreateTrade uint8 = 0
	tagMakeTrade   uint8 = 1
)

// Instruction is one of CreateTrade or MakeTrade.
type Instruction interface {
	MarshalBinary() ([]byte, error)
	instructionName() string
}

// CreateTrade locks the maker's offer and records the requested terms.
type CreateTrade struct {
	BumpSeed    uint8
	TradeAmount uint64
}

// MakeTrade accepts the recorded terms and settles the swap. The expected
// amounts must match the record exactly.
type MakeTrade struct {
	ExpectedOffer uint64
	ExpectedTrade uint64
}

func (CreateTrade) instructionName() string { return "create_trade" }
func (MakeTrade) instructionName() string   { return "make_trade" }

func (ix CreateTrade) MarshalBinary() ([]byte, error) {
	return common.NewWriter().U8(tagCreateTrade).U8(ix.BumpSeed).U64(ix.TradeAmount).Bytes(), nil
}

func (ix MakeTrade) MarshalBinary() ([]byte, error) {
	return common.NewWriter().U8(tagMakeTrade).U64(ix.ExpectedOffer).U64(ix.ExpectedTrade).Bytes(), nil
}

// DecodeInstruction parses instruction data. Unknown tags, short payloads
// and trailing bytes all fail with InvalidInstructionData.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := common.NewReader(data)
	tag := r.U8()
	var ix Instruction
	switch {
	case r.Err() != nil:
		return nil, r.Err()
	case tag == tagCreateTrade:
		ix = CreateTrade{BumpSeed: r.U8(), TradeAmount: r.U64()}
	case tag == tagMakeTrade:
		ix = MakeTrade{ExpectedOffer: r.U64(), ExpectedTrade: r.U64()}
	default:
		return nil, fmt.Errorf("%w: unknown escrow instruction %d", trerrors.ErrInvalidInstructionData, tag)
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return ix, nil
}

// CreateTradeAccounts lists the accounts of CreateTrade in positional order.
type CreateTradeAccounts struct {
	Authority    solana.PublicKey
	Record       solana.PublicKey
	OfferAccount solana.PublicKey
	TradeMint    solana.PublicKey
	Custodian    solana.PublicKey
	TokenProgram solana.PublicKey
}

func (a CreateTradeAccounts) metas() []types.AccountMeta {
	return []types.AccountMeta{
		types.Meta(a.Authority, false, true),
		types.Meta(a.Record, true, false),
		types.Meta(a.OfferAccount, true, false),
		types.Meta(a.TradeMint, false, false),
		types.Meta(a.Custodian, false, false),
		types.Meta(a.TokenProgram, false, false),
	}
}

// MakeTradeAccounts lists the accounts of MakeTrade in positional order.
type MakeTradeAccounts struct {
	Taker        solana.PublicKey
	Record       solana.PublicKey
	Custodian    solana.PublicKey
	OfferAccount solana.PublicKey
	// TakerReceive gets the offered asset.
	TakerReceive solana.PublicKey
	// TakerPay is the taker's account of the trade mint.
	TakerPay     solana.PublicKey
	MakerReceive solana.PublicKey
	// Maker receives the record's lamports and regains the offer account.
	Maker        solana.PublicKey
	FeeAccount   solana.PublicKey
	TokenProgram solana.PublicKey
}

func (a MakeTradeAccounts) metas() []types.AccountMeta {
	return []types.AccountMeta{
		types.Meta(a.Taker, false, true),
		types.Meta(a.Record, true, false),
		types.Meta(a.Custodian, false, false),
		types.Meta(a.OfferAccount, true, false),
		types.Meta(a.TakerReceive, true, false),
		types.Meta(a.TakerPay, true, false),
		types.Meta(a.MakerReceive, true, false),
		types.Meta(a.Maker, true, false),
		types.Meta(a.FeeAccount, true, false),
		types.Meta(a.TokenProgram, false, false),
	}
}

// NewCreateTradeInstruction builds a CreateTrade call.
func NewCreateTradeInstruction(programID solana.PublicKey, accounts CreateTradeAccounts, bump uint8, tradeAmount uint64) types.Instruction {
	data, _ := CreateTrade{BumpSeed: bump, TradeAmount: tradeAmount}.MarshalBinary()
	return types.NewInstruction(programID, accounts.metas(), data)
}

// NewMakeTradeInstruction builds a MakeTrade call.
func NewMakeTradeInstruction(programID solana.PublicKey, accounts MakeTradeAccounts, expectedOffer, expectedTrade uint64) types.Instruction {
	data, _ := MakeTrade{ExpectedOffer: expectedOffer, ExpectedTrade: expectedTrade}.MarshalBinary()
	return types.NewInstruction(programID, accounts.metas(), data)
}
