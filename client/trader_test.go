package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"trader/core/genesis"
	"trader/core/runtime"
	"trader/core/state"
	"trader/native/escrow"
	"trader/native/token"
	"trader/rpc"
	"trader/storage"
)

const (
	offerUnits = 10_000_000_000
	tradeUnits = 2_000_000_000
	takerUnits = 3_000_000_000
)

type fixture struct {
	rt        *runtime.Runtime
	programID solana.PublicKey
	params    escrow.Params
	payer     solana.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		programID: solana.NewWallet().PublicKey(),
		params:    escrow.DefaultParams(),
		payer:     solana.NewWallet().PrivateKey,
	}
	f.rt = runtime.New(state.NewManager(storage.NewMemDB()),
		runtime.WithAirdrop(true),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := genesis.RegisterPrograms(f.rt, f.programID, f.params)
	require.NoError(t, err)
	_, err = f.rt.Airdrop(context.Background(), f.payer.PublicKey(), 1_000_000_000_000)
	require.NoError(t, err)
	return f
}

func (f *fixture) serve(t *testing.T) *Client {
	t.Helper()
	srv := rpc.NewServer(rpc.Config{
		Backend:         f.rt,
		EscrowProgramID: f.programID,
		EscrowParams:    f.params,
		AuthToken:       "secret",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, WithAuthToken("secret"))
}

// runScenario swaps 10.0 A for 2.0 B and checks every balance afterwards.
func runScenario(t *testing.T, ledger Ledger, f *fixture) {
	ctx := context.Background()
	trader := NewTrader(ledger, f.payer, f.programID, f.params)
	maker := solana.NewWallet().PrivateKey
	taker := solana.NewWallet().PrivateKey

	m, err := trader.SetupAccounts(ctx, maker.PublicKey(), taker.PublicKey(), 9, offerUnits, takerUnits)
	require.NoError(t, err)

	open, err := trader.CreateTrade(ctx, maker, m.MakerA, m.MintB, tradeUnits)
	require.NoError(t, err)
	require.NotEmpty(t, open.Receipt.Logs)

	rec, err := trader.FetchTrade(ctx, open.Record)
	require.NoError(t, err)
	require.Equal(t, uint64(offerUnits), rec.OfferAmount)
	require.Equal(t, uint64(tradeUnits), rec.TradeAmount)
	require.Equal(t, maker.PublicKey(), rec.Authority)

	_, err = trader.MakeTrade(ctx, taker, open.Record)
	require.NoError(t, err)

	balance := func(key solana.PublicKey) uint64 {
		amount, err := trader.TokenBalance(ctx, key)
		require.NoError(t, err)
		return amount
	}
	feeAccount, err := f.params.FeeAccount(m.MintB)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000), balance(feeAccount))
	require.Equal(t, uint64(1_900_000_000), balance(m.MakerB))
	require.Equal(t, uint64(offerUnits), balance(m.TakerA))
	require.Equal(t, uint64(takerUnits-tradeUnits), balance(m.TakerB))
	require.Zero(t, balance(m.MakerA))

	offer, err := ledger.GetAccount(ctx, m.MakerA)
	require.NoError(t, err)
	decoded, err := token.UnpackAccount(offer.Data)
	require.NoError(t, err)
	require.Equal(t, maker.PublicKey(), decoded.Owner)

	_, err = trader.FetchTrade(ctx, open.Record)
	require.ErrorIs(t, err, ErrTradeNotFound)
	_, err = trader.MakeTrade(ctx, taker, open.Record)
	require.ErrorIs(t, err, ErrTradeNotFound)
}

func TestScenarioLocal(t *testing.T) {
	f := newFixture(t)
	runScenario(t, Local{Runtime: f.rt}, f)
}

func TestScenarioOverRPC(t *testing.T) {
	f := newFixture(t)
	runScenario(t, f.serve(t), f)
}

func TestCheckProgram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trader := NewTrader(Local{Runtime: f.rt}, f.payer, f.programID, f.params)
	require.NoError(t, trader.CheckProgram(ctx))

	missing := NewTrader(Local{Runtime: f.rt}, f.payer, solana.NewWallet().PublicKey(), f.params)
	require.ErrorIs(t, missing.CheckProgram(ctx), escrow.ErrNotAProgram)

	// A funded but plain account is not a program either.
	notProgram := NewTrader(Local{Runtime: f.rt}, f.payer, f.payer.PublicKey(), f.params)
	require.ErrorIs(t, notProgram.CheckProgram(ctx), escrow.ErrNotAProgram)
	_, err := notProgram.CreateTrade(ctx, f.payer, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1)
	require.ErrorIs(t, err, escrow.ErrNotAProgram)
}

func TestCreateTradeTxSigners(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	maker := solana.NewWallet().PublicKey()
	record := solana.NewWallet().PublicKey()
	programID := solana.NewWallet().PublicKey()

	tx, custodian, err := CreateTradeTx(CreateTradeParams{
		ProgramID:      programID,
		Payer:          payer,
		Maker:          maker,
		Record:         record,
		OfferAccount:   solana.NewWallet().PublicKey(),
		TradeMint:      solana.NewWallet().PublicKey(),
		TradeAmount:    5,
		RecordLamports: 1,
		Escrow:         escrow.DefaultParams(),
	}, 7)
	require.NoError(t, err)
	require.Equal(t, []solana.PublicKey{payer, record, maker}, tx.Message.Signers)
	require.Len(t, tx.Message.Instructions, 2)

	want, _, err := escrow.DeriveAuthority(record, programID)
	require.NoError(t, err)
	require.Equal(t, want, custodian)

	ix := tx.Message.Instructions[1]
	require.Equal(t, programID, ix.ProgramID)
	require.Equal(t, custodian, ix.Accounts[4].PublicKey)
}

func TestMakeTradeTxResolvesAccounts(t *testing.T) {
	params := escrow.DefaultParams()
	programID := solana.NewWallet().PublicKey()
	record := solana.NewWallet().PublicKey()
	custodian, bump, err := escrow.DeriveAuthority(record, programID)
	require.NoError(t, err)
	rec := escrow.Record{
		BumpSeed:     bump,
		OfferAccount: solana.NewWallet().PublicKey(),
		Authority:    solana.NewWallet().PublicKey(),
		OfferAmount:  10,
		TradeAmount:  20,
		Initialized:  true,
		TradeMint:    solana.NewWallet().PublicKey(),
		ProgramID:    programID,
	}
	payer := solana.NewWallet().PublicKey()
	taker := solana.NewWallet().PublicKey()
	offerMint := solana.NewWallet().PublicKey()

	for _, create := range []bool{false, true} {
		tx, accounts, err := MakeTradeTx(MakeTradeParams{
			ProgramID:      programID,
			Escrow:         params,
			Payer:          payer,
			Taker:          taker,
			Record:         record,
			Trade:          rec,
			OfferMint:      offerMint,
			CreateAccounts: create,
		}, 1)
		require.NoError(t, err)
		require.Equal(t, custodian, accounts.Custodian)
		fee, err := params.FeeAccount(rec.TradeMint)
		require.NoError(t, err)
		require.Equal(t, fee, accounts.FeeAccount)
		takerReceive, err := token.AssociatedAddress(taker, offerMint)
		require.NoError(t, err)
		require.Equal(t, takerReceive, accounts.TakerReceive)
		makerReceive, err := token.AssociatedAddress(rec.Authority, rec.TradeMint)
		require.NoError(t, err)
		require.Equal(t, makerReceive, accounts.MakerReceive)
		require.Equal(t, rec.Authority, accounts.Maker)

		wantIxs := 1
		if create {
			wantIxs = 4
		}
		require.Len(t, tx.Message.Instructions, wantIxs)
		require.Equal(t, []solana.PublicKey{payer, taker}, tx.Message.Signers)
	}
}

func TestRPCTransactionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.serve(t)
	trader := NewTrader(c, f.payer, f.programID, f.params)
	maker := solana.NewWallet().PrivateKey
	taker := solana.NewWallet().PrivateKey

	m, err := trader.SetupAccounts(ctx, maker.PublicKey(), taker.PublicKey(), 9, offerUnits, takerUnits)
	require.NoError(t, err)
	open, err := trader.CreateTrade(ctx, maker, m.MakerA, m.MintB, tradeUnits)
	require.NoError(t, err)

	trade, err := c.GetTrade(ctx, open.Record)
	require.NoError(t, err)
	require.Equal(t, open.Custodian.String(), trade.Custodian)
	require.Equal(t, uint64(offerUnits), trade.OfferAmount)

	rec, err := trader.FetchTrade(ctx, open.Record)
	require.NoError(t, err)
	rec.TradeAmount++
	tx, _, err := MakeTradeTx(MakeTradeParams{
		ProgramID: f.programID,
		Escrow:    f.params,
		Payer:     f.payer.PublicKey(),
		Taker:     taker.PublicKey(),
		Record:    open.Record,
		Trade:     rec,
		OfferMint: m.MintA,
	}, 99)
	require.NoError(t, err)
	_, err = trader.sendTx(ctx, tx, taker)
	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr), "unexpected error %v", err)
	require.Equal(t, codeTransactionFailed, rpcErr.Code)
	require.NotNil(t, rpcErr.Failure)
	require.Equal(t, "UnexpectedTradeAmount", rpcErr.Failure.Name)
	require.True(t, rpcErr.Failure.Custom)
	require.NotNil(t, rpcErr.Failure.Code)
	require.Equal(t, uint32(escrow.ErrUnexpectedTradeAmount), *rpcErr.Failure.Code)
	require.NotNil(t, rpcErr.Failure.Instruction)
	require.Zero(t, *rpcErr.Failure.Instruction)

	// The failed settlement left the trade open.
	_, err = c.GetTrade(ctx, open.Record)
	require.NoError(t, err)

	_, err = c.GetTrade(ctx, solana.NewWallet().PublicKey())
	require.True(t, IsNotFound(err))
}

func TestClientQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.serve(t)

	account, err := c.GetAccount(ctx, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Nil(t, account)

	program, err := c.GetAccount(ctx, f.programID)
	require.NoError(t, err)
	require.NotNil(t, program)
	require.True(t, program.Executable)

	lamports, err := c.MinimumBalance(ctx, escrow.RecordSize)
	require.NoError(t, err)
	require.Equal(t, f.rt.Rent().MinimumBalance(escrow.RecordSize), lamports)

	key := solana.NewWallet().PublicKey()
	_, err = c.RequestAirdrop(ctx, key, 42)
	require.NoError(t, err)
	balance, err := c.GetBalance(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uint64(42), balance)

	cfg, err := c.GetEscrowConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, f.programID.String(), cfg.ProgramID)
	require.Equal(t, f.params.FeeBps, cfg.FeeBps)

	unauthed := New(c.endpoint)
	_, err = unauthed.RequestAirdrop(ctx, key, 1)
	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -32001, rpcErr.Code)
}
