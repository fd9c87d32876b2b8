package client

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"trader/core/types"
	"trader/native/escrow"
	"trader/native/system"
	"trader/native/token"
)

// CreateTradeParams describes a new trade. The record account is allocated
// and initialized in the same transaction.
type CreateTradeParams struct {
	ProgramID    solana.PublicKey
	Payer        solana.PublicKey
	Maker        solana.PublicKey
	Record       solana.PublicKey
	OfferAccount solana.PublicKey
	TradeMint    solana.PublicKey
	TradeAmount  uint64
	// RecordLamports funds the record; it must cover rent exemption for
	// escrow.RecordSize bytes.
	RecordLamports uint64
	Escrow         escrow.Params
}

// CreateTradeTx returns the unsigned transaction opening a trade and the
// custodian that will hold the offer account. It must be signed by the
// payer, the maker and the record key.
func CreateTradeTx(p CreateTradeParams, nonce uint64) (*types.Transaction, solana.PublicKey, error) {
	custodian, bump, err := escrow.DeriveAuthority(p.Record, p.ProgramID)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("client: derive custodian: %w", err)
	}
	ixs := []types.Instruction{
		system.CreateAccount(p.Payer, p.Record, p.RecordLamports, escrow.RecordSize, p.ProgramID),
		escrow.NewCreateTradeInstruction(p.ProgramID, escrow.CreateTradeAccounts{
			Authority:    p.Maker,
			Record:       p.Record,
			OfferAccount: p.OfferAccount,
			TradeMint:    p.TradeMint,
			Custodian:    custodian,
			TokenProgram: p.Escrow.TokenProgramID,
		}, bump, p.TradeAmount),
	}
	return types.NewPaidTransaction(p.Payer, ixs, nonce), custodian, nil
}

// MakeTradeParams describes the settlement of an open trade.
type MakeTradeParams struct {
	ProgramID solana.PublicKey
	Escrow    escrow.Params
	Payer     solana.PublicKey
	Taker     solana.PublicKey
	Record    solana.PublicKey
	Trade     escrow.Record
	// OfferMint is the mint held by Trade.OfferAccount.
	OfferMint solana.PublicKey
	// CreateAccounts prepends idempotent creation of the taker's receive
	// account, the maker's receive account and the fee account.
	CreateAccounts bool
}

// MakeTradeTx returns the unsigned settlement transaction and the accounts
// it resolved. The taker pays from and receives into associated accounts.
func MakeTradeTx(p MakeTradeParams, nonce uint64) (*types.Transaction, escrow.MakeTradeAccounts, error) {
	var accounts escrow.MakeTradeAccounts
	custodian, err := escrow.AuthorityFor(p.Record, p.Trade.BumpSeed, p.ProgramID)
	if err != nil {
		return nil, accounts, fmt.Errorf("client: custodian: %w", err)
	}
	feeAccount, err := p.Escrow.FeeAccount(p.Trade.TradeMint)
	if err != nil {
		return nil, accounts, fmt.Errorf("client: fee account: %w", err)
	}

	var ixs []types.Instruction
	resolve := func(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
		ix, addr, err := token.CreateAssociated(p.Payer, wallet, mint, true)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if p.CreateAccounts {
			ixs = append(ixs, ix)
		}
		return addr, nil
	}
	takerReceive, err := resolve(p.Taker, p.OfferMint)
	if err != nil {
		return nil, accounts, fmt.Errorf("client: taker receive account: %w", err)
	}
	makerReceive, err := resolve(p.Trade.Authority, p.Trade.TradeMint)
	if err != nil {
		return nil, accounts, fmt.Errorf("client: maker receive account: %w", err)
	}
	if p.CreateAccounts {
		ix, _, err := token.CreateAssociated(p.Payer, p.Escrow.FeeBeneficiary, p.Trade.TradeMint, true)
		if err != nil {
			return nil, accounts, fmt.Errorf("client: fee account: %w", err)
		}
		ixs = append(ixs, ix)
	}
	takerPay, err := token.AssociatedAddress(p.Taker, p.Trade.TradeMint)
	if err != nil {
		return nil, accounts, fmt.Errorf("client: taker pay account: %w", err)
	}

	accounts = escrow.MakeTradeAccounts{
		Taker:        p.Taker,
		Record:       p.Record,
		Custodian:    custodian,
		OfferAccount: p.Trade.OfferAccount,
		TakerReceive: takerReceive,
		TakerPay:     takerPay,
		MakerReceive: makerReceive,
		Maker:        p.Trade.Authority,
		FeeAccount:   feeAccount,
		TokenProgram: p.Escrow.TokenProgramID,
	}
	ixs = append(ixs, escrow.NewMakeTradeInstruction(p.ProgramID, accounts, p.Trade.OfferAmount, p.Trade.TradeAmount))
	return types.NewPaidTransaction(p.Payer, ixs, nonce), accounts, nil
}
