package escrow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	trerrors "trader/core/errors"
	"trader/core/events"
	"trader/core/runtime"
	"trader/core/state"
	"trader/core/types"
	"trader/native/common"
	"trader/native/system"
	"trader/native/token"
	"trader/storage"
)

type ledgerCall struct {
	op     string
	source solana.PublicKey
	dest   solana.PublicKey
	amount uint64
}

// countingLedger records every ledger call the program makes, including the
// ones of transactions that later roll back.
type countingLedger struct {
	inner Ledger
	mu    *sync.Mutex
	calls *[]ledgerCall
}

func (l countingLedger) Transfer(source, destination solana.PublicKey, amount uint64, auth Authorization) error {
	l.record(ledgerCall{op: "transfer", source: source, dest: destination, amount: amount})
	return l.inner.Transfer(source, destination, amount, auth)
}

func (l countingLedger) SetOwner(account, newOwner solana.PublicKey, auth Authorization) error {
	l.record(ledgerCall{op: "set_owner", source: account, dest: newOwner})
	return l.inner.SetOwner(account, newOwner, auth)
}

func (l countingLedger) record(c ledgerCall) {
	l.mu.Lock()
	*l.calls = append(*l.calls, c)
	l.mu.Unlock()
}

type harness struct {
	rt        *runtime.Runtime
	recorder  *events.Recorder
	payer     solana.PrivateKey
	programID solana.PublicKey
	params    Params
	nonce     uint64

	mu    sync.Mutex
	calls []ledgerCall
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		recorder:  &events.Recorder{},
		payer:     solana.NewWallet().PrivateKey,
		programID: solana.NewWallet().PublicKey(),
		params:    DefaultParams(),
	}
	h.rt = runtime.New(state.NewManager(storage.NewMemDB()),
		runtime.WithAirdrop(true),
		runtime.WithEmitter(h.recorder),
		runtime.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	opts = append([]Option{WithLedger(func(ctx runtime.Context, tp solana.PublicKey) Ledger {
		return countingLedger{inner: NewRuntimeLedger(ctx, tp), mu: &h.mu, calls: &h.calls}
	})}, opts...)
	prog, err := NewProgram(h.params, opts...)
	require.NoError(t, err)
	require.NoError(t, h.rt.Register(solana.SystemProgramID, system.New()))
	require.NoError(t, h.rt.Register(token.ProgramID, token.New()))
	require.NoError(t, h.rt.Register(token.AssociatedProgramID, token.NewAssociated()))
	require.NoError(t, h.rt.Register(h.programID, prog))
	_, err = h.rt.Airdrop(context.Background(), h.payer.PublicKey(), 1_000_000_000_000)
	require.NoError(t, err)
	return h
}

func (h *harness) send(t *testing.T, ixs []types.Instruction, signers ...solana.PrivateKey) error {
	t.Helper()
	h.nonce++
	tx := types.NewPaidTransaction(h.payer.PublicKey(), ixs, h.nonce)
	require.NoError(t, tx.Sign(append(signers, h.payer)...))
	_, err := h.rt.Process(context.Background(), tx)
	return err
}

func (h *harness) resetCalls() {
	h.mu.Lock()
	h.calls = nil
	h.mu.Unlock()
}

func (h *harness) ledgerCalls() []ledgerCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ledgerCall(nil), h.calls...)
}

func (h *harness) createMint(t *testing.T, decimals uint8) solana.PublicKey {
	t.Helper()
	mint := solana.NewWallet().PrivateKey
	require.NoError(t, h.send(t, []types.Instruction{
		system.CreateAccount(h.payer.PublicKey(), mint.PublicKey(), h.rt.Rent().MinimumBalance(token.MintSize), token.MintSize, token.ProgramID),
		token.InitializeMint(token.ProgramID, mint.PublicKey(), h.payer.PublicKey(), decimals),
	}, mint))
	return mint.PublicKey()
}

func (h *harness) tokenAccount(t *testing.T, mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	ix, addr, err := token.CreateAssociated(h.payer.PublicKey(), owner, mint, true)
	require.NoError(t, err)
	ixs := []types.Instruction{ix}
	if amount > 0 {
		ixs = append(ixs, token.MintTo(token.ProgramID, mint, addr, h.payer.PublicKey(), amount))
	}
	require.NoError(t, h.send(t, ixs))
	return addr
}

func (h *harness) balance(t *testing.T, key solana.PublicKey) token.Account {
	t.Helper()
	acc, err := h.rt.GetAccount(key)
	require.NoError(t, err)
	require.NotNil(t, acc)
	decoded, err := token.UnpackAccount(acc.Data)
	require.NoError(t, err)
	return decoded
}

func (h *harness) allocateRecord(t *testing.T, lamports uint64) solana.PrivateKey {
	t.Helper()
	record := solana.NewWallet().PrivateKey
	require.NoError(t, h.send(t, []types.Instruction{
		system.CreateAccount(h.payer.PublicKey(), record.PublicKey(), lamports, RecordSize, h.programID),
	}, record))
	return record
}

func (h *harness) record(t *testing.T, key solana.PublicKey) Record {
	t.Helper()
	acc, err := h.rt.GetAccount(key)
	require.NoError(t, err)
	require.NotNil(t, acc)
	rec, err := UnpackRecord(acc.Data)
	require.NoError(t, err)
	return rec
}

// market holds two assets and the four token accounts of a maker and a
// taker, plus the fee destination.
type market struct {
	maker, taker   solana.PrivateKey
	mintA, mintB   solana.PublicKey
	makerA, makerB solana.PublicKey
	takerA, takerB solana.PublicKey
	fee            solana.PublicKey
}

func (h *harness) newMarket(t *testing.T, offer, takerFunds uint64) *market {
	t.Helper()
	m := &market{maker: solana.NewWallet().PrivateKey, taker: solana.NewWallet().PrivateKey}
	m.mintA = h.createMint(t, 9)
	m.mintB = h.createMint(t, 9)
	m.makerA = h.tokenAccount(t, m.mintA, m.maker.PublicKey(), offer)
	m.makerB = h.tokenAccount(t, m.mintB, m.maker.PublicKey(), 0)
	m.takerA = h.tokenAccount(t, m.mintA, m.taker.PublicKey(), 0)
	m.takerB = h.tokenAccount(t, m.mintB, m.taker.PublicKey(), takerFunds)
	m.fee = h.tokenAccount(t, m.mintB, h.params.FeeBeneficiary, 0)
	return m
}

type trade struct {
	record    solana.PublicKey
	custodian solana.PublicKey
	bump      uint8
}

func (h *harness) createAccounts(t *testing.T, m *market, tr trade) CreateTradeAccounts {
	t.Helper()
	return CreateTradeAccounts{
		Authority:    m.maker.PublicKey(),
		Record:       tr.record,
		OfferAccount: m.makerA,
		TradeMint:    m.mintB,
		Custodian:    tr.custodian,
		TokenProgram: token.ProgramID,
	}
}

func (h *harness) newTrade(t *testing.T, lamports uint64) (trade, solana.PrivateKey) {
	t.Helper()
	record := h.allocateRecord(t, lamports)
	custodian, bump, err := DeriveAuthority(record.PublicKey(), h.programID)
	require.NoError(t, err)
	return trade{record: record.PublicKey(), custodian: custodian, bump: bump}, record
}

func (h *harness) openTrade(t *testing.T, m *market, tradeAmount uint64) trade {
	t.Helper()
	tr, _ := h.newTrade(t, h.rt.Rent().MinimumBalance(RecordSize))
	ix := NewCreateTradeInstruction(h.programID, h.createAccounts(t, m, tr), tr.bump, tradeAmount)
	require.NoError(t, h.send(t, []types.Instruction{ix}, m.maker))
	return tr
}

func (h *harness) makeAccounts(m *market, tr trade) MakeTradeAccounts {
	return MakeTradeAccounts{
		Taker:        m.taker.PublicKey(),
		Record:       tr.record,
		Custodian:    tr.custodian,
		OfferAccount: m.makerA,
		TakerReceive: m.takerA,
		TakerPay:     m.takerB,
		MakerReceive: m.makerB,
		Maker:        m.maker.PublicKey(),
		FeeAccount:   m.fee,
		TokenProgram: token.ProgramID,
	}
}

func TestCreateTradeLocksOffer(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 10_000_000_000, 0)
	tr := h.openTrade(t, m, 2_000_000_000)

	rec := h.record(t, tr.record)
	require.Equal(t, Record{
		BumpSeed:     tr.bump,
		OfferAccount: m.makerA,
		Authority:    m.maker.PublicKey(),
		OfferAmount:  10_000_000_000,
		TradeAmount:  2_000_000_000,
		Initialized:  true,
		TradeMint:    m.mintB,
		ProgramID:    h.programID,
	}, rec)

	offer := h.balance(t, m.makerA)
	require.Equal(t, tr.custodian, offer.Owner)
	require.Equal(t, uint64(10_000_000_000), offer.Amount)

	calls := h.ledgerCalls()
	require.Len(t, calls, 1)
	require.Equal(t, ledgerCall{op: "set_owner", source: m.makerA, dest: tr.custodian}, calls[0])

	created := h.recorder.OfType(EventTypeTradeCreated)
	require.Len(t, created, 1)
	require.Equal(t, tr.record.String(), created[0].Attr("record"))
	require.Equal(t, tr.custodian.String(), created[0].Attr("custodian"))

	// the maker can no longer move the locked balance
	err := h.send(t, []types.Instruction{
		token.Transfer(token.ProgramID, m.makerA, m.takerA, m.maker.PublicKey(), 1),
	}, m.maker)
	require.ErrorIs(t, err, token.ErrOwnerMismatch)
}

func TestCreateTradeOnlyOnce(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 500, 0)
	tr := h.openTrade(t, m, 20)
	before := h.record(t, tr.record)

	other := h.newMarket(t, 900, 0)
	accts := h.createAccounts(t, other, tr)
	err := h.send(t, []types.Instruction{NewCreateTradeInstruction(h.programID, accts, tr.bump, 1)}, other.maker)
	require.ErrorIs(t, err, trerrors.ErrAccountAlreadyInitialized)
	require.Equal(t, before, h.record(t, tr.record))
	require.Equal(t, other.maker.PublicKey(), h.balance(t, other.makerA).Owner)
}

func TestCreateTradeRejections(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 1_000, 0)
	rent := h.rt.Rent().MinimumBalance(RecordSize)

	cases := []struct {
		name     string
		lamports uint64
		unsigned bool
		mutate   func(a *CreateTradeAccounts)
		want     error
	}{
		{name: "authority not signer", lamports: rent - 1, unsigned: true, want: ErrWrongAuthority},
		{
			name:     "rent checked before offer ownership",
			lamports: rent - 1,
			mutate:   func(a *CreateTradeAccounts) { a.OfferAccount = m.maker.PublicKey() },
			want:     trerrors.ErrAccountNotRentExempt,
		},
		{
			name:     "offer not a token account",
			lamports: rent,
			mutate:   func(a *CreateTradeAccounts) { a.OfferAccount = m.maker.PublicKey() },
			want:     trerrors.ErrIncorrectProgramID,
		},
		{
			name:     "empty offer",
			lamports: rent,
			mutate:   func(a *CreateTradeAccounts) { a.OfferAccount = m.makerB },
			want:     trerrors.ErrInsufficientFunds,
		},
		{
			name:     "trade mint is not a mint",
			lamports: rent,
			mutate:   func(a *CreateTradeAccounts) { a.TradeMint = m.takerB },
			want:     ErrUnexpectedAccount,
		},
		{
			name:     "foreign custodian",
			lamports: rent,
			mutate:   func(a *CreateTradeAccounts) { a.Custodian = m.taker.PublicKey() },
			want:     ErrUnexpectedAccount,
		},
		{
			name:     "wrong ledger program",
			lamports: rent,
			mutate:   func(a *CreateTradeAccounts) { a.TokenProgram = solana.SystemProgramID },
			want:     ErrUnexpectedAccount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h.resetCalls()
			record := solana.NewWallet().PrivateKey
			custodian, bump, err := DeriveAuthority(record.PublicKey(), h.programID)
			require.NoError(t, err)
			accts := h.createAccounts(t, m, trade{record: record.PublicKey(), custodian: custodian, bump: bump})
			if tc.mutate != nil {
				tc.mutate(&accts)
			}
			ix := NewCreateTradeInstruction(h.programID, accts, bump, 10)
			if tc.unsigned {
				ix.Accounts[0].IsSigner = false
			}
			err = h.send(t, []types.Instruction{
				system.CreateAccount(h.payer.PublicKey(), record.PublicKey(), tc.lamports, RecordSize, h.programID),
				ix,
			}, record, m.maker)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, h.ledgerCalls())

			gone, err := h.rt.GetAccount(record.PublicKey())
			require.NoError(t, err)
			require.Nil(t, gone)
			require.Equal(t, m.maker.PublicKey(), h.balance(t, m.makerA).Owner)
		})
	}
}

func TestConcreteScenario(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 10_000_000_000, 5_000_000_000)
	offer, err := token.ParseAmount("10.0", 9)
	require.NoError(t, err)
	want, err := token.ParseAmount("2.0", 9)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000_000), offer)

	tr := h.openTrade(t, m, want)
	recordAcc, err := h.rt.GetAccount(tr.record)
	require.NoError(t, err)
	deposit := recordAcc.Lamports
	h.resetCalls()

	ix := NewMakeTradeInstruction(h.programID, h.makeAccounts(m, tr), offer, want)
	require.NoError(t, h.send(t, []types.Instruction{ix}, m.taker))

	require.Equal(t, uint64(100_000_000), h.balance(t, m.fee).Amount)
	require.Equal(t, uint64(1_900_000_000), h.balance(t, m.makerB).Amount)
	require.Equal(t, uint64(10_000_000_000), h.balance(t, m.takerA).Amount)
	require.Equal(t, uint64(3_000_000_000), h.balance(t, m.takerB).Amount)

	makerA := h.balance(t, m.makerA)
	require.Zero(t, makerA.Amount)
	require.Equal(t, m.maker.PublicKey(), makerA.Owner)

	gone, err := h.rt.GetAccount(tr.record)
	require.NoError(t, err)
	require.Nil(t, gone)

	maker, err := h.rt.GetAccount(m.maker.PublicKey())
	require.NoError(t, err)
	require.Equal(t, deposit, maker.Lamports)

	calls := h.ledgerCalls()
	require.Equal(t, []ledgerCall{
		{op: "transfer", source: m.takerB, dest: m.fee, amount: 100_000_000},
		{op: "transfer", source: m.makerA, dest: m.takerA, amount: 10_000_000_000},
		{op: "transfer", source: m.takerB, dest: m.makerB, amount: 1_900_000_000},
		{op: "set_owner", source: m.makerA, dest: m.maker.PublicKey()},
	}, calls)

	settled := h.recorder.OfType(EventTypeTradeSettled)
	require.Len(t, settled, 1)
	require.Equal(t, "100000000", settled[0].Attr("fee"))
	require.Len(t, h.recorder.OfType(events.TypeTokenTransfer), 3)

	// a settled record cannot be settled again
	err = h.send(t, []types.Instruction{ix}, m.taker)
	require.ErrorIs(t, err, trerrors.ErrInvalidAccountData)
	require.Equal(t, uint64(3_000_000_000), h.balance(t, m.takerB).Amount)
}

func TestMakeTradeTermsBinding(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 1_000, 1_000)
	tr := h.openTrade(t, m, 300)
	h.resetCalls()

	cases := []struct {
		name          string
		offer, amount uint64
		want          error
	}{
		{"offer too high", 1_001, 300, ErrUnexpectedOfferAmount},
		{"offer too low", 999, 300, ErrUnexpectedOfferAmount},
		{"offer checked first", 1, 1, ErrUnexpectedOfferAmount},
		{"trade too low", 1_000, 299, ErrUnexpectedTradeAmount},
	}
	for _, tc := range cases {
		ix := NewMakeTradeInstruction(h.programID, h.makeAccounts(m, tr), tc.offer, tc.amount)
		require.ErrorIs(t, h.send(t, []types.Instruction{ix}, m.taker), tc.want, tc.name)
	}
	require.Empty(t, h.ledgerCalls())
	require.Equal(t, uint64(1_000), h.balance(t, m.takerB).Amount)
	require.Equal(t, uint64(1_000), h.balance(t, m.makerA).Amount)
	require.True(t, h.record(t, tr.record).Initialized)
}

func TestMakeTradeRejections(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 1_000, 1_000)
	tr := h.openTrade(t, m, 300)
	uninitialised, _ := h.newTrade(t, h.rt.Rent().MinimumBalance(RecordSize))
	impostor := solana.NewWallet().PublicKey()
	prog, err := NewProgram(h.params)
	require.NoError(t, err)
	require.NoError(t, h.rt.Register(impostor, prog))

	// Cases that break two checks at once pin the order in which they run.
	cases := []struct {
		name          string
		unsigned      bool
		programID     solana.PublicKey
		offer, amount uint64
		mutate        func(a *MakeTradeAccounts)
		want          error
	}{
		{name: "taker not signer", unsigned: true, want: ErrWrongAuthority},
		{
			name:   "record not initialised",
			mutate: func(a *MakeTradeAccounts) { a.Record = uninitialised.record },
			want:   ErrTradeNotInitialised,
		},
		{
			name: "offer account checked before payment mint",
			mutate: func(a *MakeTradeAccounts) {
				a.OfferAccount = m.takerA
				a.TakerPay = m.makerA
			},
			want: ErrWrongTokenAccount,
		},
		{
			name:      "offer account checked before program id",
			programID: impostor,
			mutate:    func(a *MakeTradeAccounts) { a.OfferAccount = m.takerA },
			want:      ErrWrongTokenAccount,
		},
		{
			name:      "program id checked before payment mint",
			programID: impostor,
			mutate:    func(a *MakeTradeAccounts) { a.TakerPay = m.takerA },
			want:      trerrors.ErrIncorrectProgramID,
		},
		{
			name:   "payment mint checked before terms",
			offer:  999,
			mutate: func(a *MakeTradeAccounts) { a.TakerPay = m.takerA },
			want:   ErrTradeMintMissmatch,
		},
		{
			name:   "terms checked before fee account",
			amount: 299,
			mutate: func(a *MakeTradeAccounts) { a.FeeAccount = m.makerB },
			want:   ErrUnexpectedTradeAmount,
		},
		{
			name: "fee account checked before custodian",
			mutate: func(a *MakeTradeAccounts) {
				a.FeeAccount = m.makerB
				a.Custodian = m.maker.PublicKey()
			},
			want: ErrWrongAuthority,
		},
		{
			name: "fee account checked before ledger program",
			mutate: func(a *MakeTradeAccounts) {
				a.FeeAccount = m.makerB
				a.TokenProgram = solana.SystemProgramID
			},
			want: ErrWrongAuthority,
		},
		{
			name: "fee account checked before proceeds account",
			mutate: func(a *MakeTradeAccounts) {
				a.FeeAccount = m.makerB
				a.MakerReceive = m.takerB
			},
			want: ErrWrongAuthority,
		},
		{
			name: "proceeds account checked before refund",
			mutate: func(a *MakeTradeAccounts) {
				a.MakerReceive = m.takerB
				a.Maker = m.taker.PublicKey()
			},
			want: ErrUnexpectedAccount,
		},
		{
			name:   "taker pays in the wrong asset",
			mutate: func(a *MakeTradeAccounts) { a.TakerPay = m.takerA },
			want:   ErrTradeMintMissmatch,
		},
		{
			name:   "fee redirected",
			mutate: func(a *MakeTradeAccounts) { a.FeeAccount = m.makerB },
			want:   ErrWrongAuthority,
		},
		{
			name:   "foreign custodian",
			mutate: func(a *MakeTradeAccounts) { a.Custodian = m.maker.PublicKey() },
			want:   ErrUnexpectedAccount,
		},
		{
			name:   "wrong ledger program",
			mutate: func(a *MakeTradeAccounts) { a.TokenProgram = solana.SystemProgramID },
			want:   ErrUnexpectedAccount,
		},
		{
			name:   "proceeds redirected",
			mutate: func(a *MakeTradeAccounts) { a.MakerReceive = m.takerB },
			want:   ErrUnexpectedAccount,
		},
		{
			name:   "refund redirected",
			mutate: func(a *MakeTradeAccounts) { a.Maker = m.taker.PublicKey() },
			want:   ErrWrongAuthority,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h.resetCalls()
			accts := h.makeAccounts(m, tr)
			if tc.mutate != nil {
				tc.mutate(&accts)
			}
			programID, offer, amount := h.programID, uint64(1_000), uint64(300)
			if !tc.programID.IsZero() {
				programID = tc.programID
			}
			if tc.offer != 0 {
				offer = tc.offer
			}
			if tc.amount != 0 {
				amount = tc.amount
			}
			ix := NewMakeTradeInstruction(programID, accts, offer, amount)
			if tc.unsigned {
				ix.Accounts[0].IsSigner = false
			}
			require.ErrorIs(t, h.send(t, []types.Instruction{ix}, m.taker), tc.want)
			require.Empty(t, h.ledgerCalls())
		})
	}
	require.True(t, h.record(t, tr.record).Initialized)
	require.Equal(t, tr.custodian, h.balance(t, m.makerA).Owner)
	require.Equal(t, uint64(1_000), h.balance(t, m.takerB).Amount)
}

func TestMakeTradeRollsBackOnLedgerFailure(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 10_000, 100)
	tr := h.openTrade(t, m, 150)
	h.resetCalls()

	ix := NewMakeTradeInstruction(h.programID, h.makeAccounts(m, tr), 10_000, 150)
	err := h.send(t, []types.Instruction{ix}, m.taker)
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	require.NotEmpty(t, h.ledgerCalls())

	require.Zero(t, h.balance(t, m.fee).Amount)
	require.Zero(t, h.balance(t, m.takerA).Amount)
	require.Equal(t, uint64(100), h.balance(t, m.takerB).Amount)
	require.Equal(t, uint64(10_000), h.balance(t, m.makerA).Amount)
	require.Equal(t, tr.custodian, h.balance(t, m.makerA).Owner)
	require.True(t, h.record(t, tr.record).Initialized)
	require.Empty(t, h.recorder.OfType(EventTypeTradeSettled))
}

func TestMakeTradeFeeAboveTrade(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 10_000, 1_000)
	tr := h.openTrade(t, m, 99)

	ix := NewMakeTradeInstruction(h.programID, h.makeAccounts(m, tr), 10_000, 99)
	require.ErrorIs(t, h.send(t, []types.Instruction{ix}, m.taker), ErrValueOverflow)
	require.True(t, h.record(t, tr.record).Initialized)
}

func TestMakeTradeForeignProgram(t *testing.T) {
	h := newHarness(t)
	m := h.newMarket(t, 1_000, 1_000)
	tr := h.openTrade(t, m, 300)

	impostor := solana.NewWallet().PublicKey()
	prog, err := NewProgram(h.params)
	require.NoError(t, err)
	require.NoError(t, h.rt.Register(impostor, prog))

	ix := NewMakeTradeInstruction(impostor, h.makeAccounts(m, tr), 1_000, 300)
	require.ErrorIs(t, h.send(t, []types.Instruction{ix}, m.taker), trerrors.ErrIncorrectProgramID)
}

func TestPausedProgram(t *testing.T) {
	h := newHarness(t, WithPauses(common.NewPauseSet("escrow")))
	m := h.newMarket(t, 1_000, 0)
	tr, _ := h.newTrade(t, h.rt.Rent().MinimumBalance(RecordSize))
	ix := NewCreateTradeInstruction(h.programID, h.createAccounts(t, m, tr), tr.bump, 10)
	require.ErrorIs(t, h.send(t, []types.Instruction{ix}, m.maker), common.ErrModulePaused)
}

func TestMetricsEmitterIgnoresOtherEvents(t *testing.T) {
	require.NotPanics(t, func() {
		MetricsEmitter{}.Emit(nil)
		MetricsEmitter{}.Emit(events.TokenTransfer{Amount: 1})
	})
}
