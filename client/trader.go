package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"trader/core/types"
	"trader/native/escrow"
	"trader/native/system"
	"trader/native/token"
)

var ErrTradeNotFound = errors.New("client: trade not found")

// Trader runs the maker and taker workflows against a ledger. The payer funds
// every account the workflow creates and is the mint authority of mints made
// by CreateMint.
type Trader struct {
	ledger    Ledger
	payer     solana.PrivateKey
	programID solana.PublicKey
	params    escrow.Params
	nonce     atomic.Uint64
}

func NewTrader(ledger Ledger, payer solana.PrivateKey, programID solana.PublicKey, params escrow.Params) *Trader {
	t := &Trader{ledger: ledger, payer: payer, programID: programID, params: params}
	t.nonce.Store(uint64(time.Now().UnixNano()))
	return t
}

func (t *Trader) Payer() solana.PublicKey { return t.payer.PublicKey() }

func (t *Trader) ProgramID() solana.PublicKey { return t.programID }

func (t *Trader) nextNonce() uint64 { return t.nonce.Add(1) }

func (t *Trader) sendTx(ctx context.Context, tx *types.Transaction, signers ...solana.PrivateKey) (*Receipt, error) {
	if err := tx.Sign(append(signers, t.payer)...); err != nil {
		return nil, err
	}
	return t.ledger.Send(ctx, tx)
}

func (t *Trader) send(ctx context.Context, ixs []types.Instruction, signers ...solana.PrivateKey) (*Receipt, error) {
	return t.sendTx(ctx, types.NewPaidTransaction(t.payer.PublicKey(), ixs, t.nextNonce()), signers...)
}

// CheckProgram fails with escrow.ErrNotAProgram unless the escrow program is
// deployed.
func (t *Trader) CheckProgram(ctx context.Context) error {
	account, err := t.ledger.GetAccount(ctx, t.programID)
	if err != nil {
		return err
	}
	if account == nil || !account.Executable {
		return fmt.Errorf("%w: %s", escrow.ErrNotAProgram, t.programID)
	}
	return nil
}

// CreateMint creates a mint whose authority is the payer.
func (t *Trader) CreateMint(ctx context.Context, decimals uint8) (solana.PublicKey, error) {
	lamports, err := t.ledger.MinimumBalance(ctx, token.MintSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	mint := solana.NewWallet().PrivateKey
	_, err = t.send(ctx, []types.Instruction{
		system.CreateAccount(t.payer.PublicKey(), mint.PublicKey(), lamports, token.MintSize, t.params.TokenProgramID),
		token.InitializeMint(t.params.TokenProgramID, mint.PublicKey(), t.payer.PublicKey(), decimals),
	}, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("client: create mint: %w", err)
	}
	return mint.PublicKey(), nil
}

// EnsureTokenAccount returns owner's associated account for mint, creating it
// when missing.
func (t *Trader) EnsureTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ix, addr, err := token.CreateAssociated(t.payer.PublicKey(), owner, mint, true)
	if err != nil {
		return solana.PublicKey{}, err
	}
	existing, err := t.ledger.GetAccount(ctx, addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if existing != nil {
		return addr, nil
	}
	if _, err := t.send(ctx, []types.Instruction{ix}); err != nil {
		return solana.PublicKey{}, fmt.Errorf("client: create token account: %w", err)
	}
	return addr, nil
}

// MintTo issues amount of a payer-controlled mint into destination.
func (t *Trader) MintTo(ctx context.Context, mint, destination solana.PublicKey, amount uint64) error {
	_, err := t.send(ctx, []types.Instruction{
		token.MintTo(t.params.TokenProgramID, mint, destination, t.payer.PublicKey(), amount),
	})
	return err
}

// Market is the pair of assets and the token accounts of one maker and one
// taker.
type Market struct {
	MintA, MintB   solana.PublicKey
	MakerA, MakerB solana.PublicKey
	TakerA, TakerB solana.PublicKey
}

// SetupAccounts creates two mints, funds the maker with offer units of A and
// the taker with takerFunds units of B, and creates both receive accounts.
func (t *Trader) SetupAccounts(ctx context.Context, maker, taker solana.PublicKey, decimals uint8, offer, takerFunds uint64) (*Market, error) {
	m := &Market{}
	var err error
	if m.MintA, err = t.CreateMint(ctx, decimals); err != nil {
		return nil, err
	}
	if m.MintB, err = t.CreateMint(ctx, decimals); err != nil {
		return nil, err
	}
	accounts := []struct {
		dst         *solana.PublicKey
		owner, mint solana.PublicKey
		amount      uint64
	}{
		{&m.MakerA, maker, m.MintA, offer},
		{&m.MakerB, maker, m.MintB, 0},
		{&m.TakerA, taker, m.MintA, 0},
		{&m.TakerB, taker, m.MintB, takerFunds},
	}
	for _, acc := range accounts {
		addr, err := t.EnsureTokenAccount(ctx, acc.owner, acc.mint)
		if err != nil {
			return nil, err
		}
		*acc.dst = addr
		if acc.amount == 0 {
			continue
		}
		if err := t.MintTo(ctx, acc.mint, addr, acc.amount); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OpenTrade is a trade created by CreateTrade.
type OpenTrade struct {
	Record    solana.PublicKey
	Custodian solana.PublicKey
	Receipt   *Receipt
}

// CreateTrade locks offerAccount in a new trade asking tradeAmount units of
// tradeMint.
func (t *Trader) CreateTrade(ctx context.Context, maker solana.PrivateKey, offerAccount, tradeMint solana.PublicKey, tradeAmount uint64) (*OpenTrade, error) {
	if err := t.CheckProgram(ctx); err != nil {
		return nil, err
	}
	lamports, err := t.ledger.MinimumBalance(ctx, escrow.RecordSize)
	if err != nil {
		return nil, err
	}
	record := solana.NewWallet().PrivateKey
	tx, custodian, err := CreateTradeTx(CreateTradeParams{
		ProgramID:      t.programID,
		Payer:          t.payer.PublicKey(),
		Maker:          maker.PublicKey(),
		Record:         record.PublicKey(),
		OfferAccount:   offerAccount,
		TradeMint:      tradeMint,
		TradeAmount:    tradeAmount,
		RecordLamports: lamports,
		Escrow:         t.params,
	}, t.nextNonce())
	if err != nil {
		return nil, err
	}
	receipt, err := t.sendTx(ctx, tx, maker, record)
	if err != nil {
		return nil, err
	}
	return &OpenTrade{Record: record.PublicKey(), Custodian: custodian, Receipt: receipt}, nil
}

// FetchTrade loads the open trade stored at record.
func (t *Trader) FetchTrade(ctx context.Context, record solana.PublicKey) (escrow.Record, error) {
	account, err := t.ledger.GetAccount(ctx, record)
	if err != nil {
		return escrow.Record{}, err
	}
	if account == nil || !account.Owner.Equals(t.programID) {
		return escrow.Record{}, fmt.Errorf("%w: %s", ErrTradeNotFound, record)
	}
	rec, err := escrow.UnpackRecord(account.Data)
	if err != nil {
		return escrow.Record{}, err
	}
	if !rec.Initialized {
		return escrow.Record{}, fmt.Errorf("%w: %s", ErrTradeNotFound, record)
	}
	return rec, nil
}

// MakeTrade settles the trade at record for taker. The taker's receive
// account, the maker's receive account and the fee account are created if
// missing.
func (t *Trader) MakeTrade(ctx context.Context, taker solana.PrivateKey, record solana.PublicKey) (*Receipt, error) {
	if err := t.CheckProgram(ctx); err != nil {
		return nil, err
	}
	rec, err := t.FetchTrade(ctx, record)
	if err != nil {
		return nil, err
	}
	offer, err := t.ledger.GetAccount(ctx, rec.OfferAccount)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, fmt.Errorf("client: offer account %s missing", rec.OfferAccount)
	}
	offerState, err := token.UnpackAccount(offer.Data)
	if err != nil {
		return nil, fmt.Errorf("client: offer account: %w", err)
	}
	tx, _, err := MakeTradeTx(MakeTradeParams{
		ProgramID:      t.programID,
		Escrow:         t.params,
		Payer:          t.payer.PublicKey(),
		Taker:          taker.PublicKey(),
		Record:         record,
		Trade:          rec,
		OfferMint:      offerState.Mint,
		CreateAccounts: true,
	}, t.nextNonce())
	if err != nil {
		return nil, err
	}
	return t.sendTx(ctx, tx, taker)
}

// TokenBalance returns the amount held by a token account.
func (t *Trader) TokenBalance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	account, err := t.ledger.GetAccount(ctx, key)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("client: token account %s missing", key)
	}
	decoded, err := token.UnpackAccount(account.Data)
	if err != nil {
		return 0, err
	}
	return decoded.Amount, nil
}
