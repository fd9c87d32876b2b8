package escrow

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/runtime"
	"trader/native/common"
	"trader/native/token"
	"trader/observability/metrics"
)

const moduleName = "escrow"

// Program is the escrow engine. One instance is bound to one program id and
// one set of Params.
type Program struct {
	params Params
	pauses common.PauseView
	ledger LedgerFactory
}

// Option configures a Program.
type Option func(*Program)

// WithPauses lets operators halt the program without redeploying.
func WithPauses(p common.PauseView) Option { return func(e *Program) { e.pauses = p } }

// WithLedger replaces the cross-program ledger, primarily used in tests.
func WithLedger(f LedgerFactory) Option {
	return func(e *Program) {
		if f != nil {
			e.ledger = f
		}
	}
}

// NewProgram validates params and builds the program.
func NewProgram(params Params, opts ...Option) (*Program, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Program{params: params, ledger: NewRuntimeLedger}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Program) Name() string { return moduleName }

// Params returns the parameters the program was built with.
func (p *Program) Params() Params { return p.params }

// Process implements runtime.Program.
func (p *Program) Process(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, data []byte) (err error) {
	if err := common.Guard(p.pauses, moduleName); err != nil {
		return err
	}
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}
	defer func() {
		metrics.Escrow().RecordInstruction(ix.instructionName(), errorCode(err))
	}()
	switch v := ix.(type) {
	case CreateTrade:
		return p.createTrade(ctx, programID, accounts, v)
	case MakeTrade:
		return p.makeTrade(ctx, programID, accounts, v)
	default:
		return trerrors.ErrInvalidInstructionData
	}
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if name, _, _, ok := trerrors.Describe(err); ok {
		return name
	}
	return "Unknown"
}

func (p *Program) checkLedger(info *runtime.AccountInfo) error {
	if !info.Key.Equals(p.params.TokenProgramID) {
		return ErrUnexpectedAccount
	}
	if !info.Executable {
		return ErrNotAProgram
	}
	return nil
}

func (p *Program) createTrade(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, ix CreateTrade) error {
	if len(accounts) < 6 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	authority, recordInfo, offerInfo, mintInfo, custodianInfo, ledgerInfo :=
		accounts[0], accounts[1], accounts[2], accounts[3], accounts[4], accounts[5]
	ctx.Logf("Creating trade")

	if !authority.IsSigner {
		return ErrWrongAuthority
	}
	rec, err := UnpackRecord(recordInfo.Data)
	if err != nil {
		return err
	}
	if rec.Initialized {
		return trerrors.ErrAccountAlreadyInitialized
	}
	if !ctx.Rent().IsExempt(recordInfo.Lamports, recordInfo.DataLen()) {
		return trerrors.ErrAccountNotRentExempt
	}
	if !offerInfo.IsOwnedBy(p.params.TokenProgramID) {
		return trerrors.ErrIncorrectProgramID
	}
	offer, err := token.UnpackAccount(offerInfo.Data)
	if err != nil {
		return err
	}
	if offer.Amount == 0 {
		return trerrors.ErrInsufficientFunds
	}

	if !recordInfo.IsOwnedBy(programID) {
		return trerrors.ErrIncorrectProgramID
	}
	if !mintInfo.IsOwnedBy(p.params.TokenProgramID) {
		return ErrUnexpectedAccount
	}
	if mint, err := token.UnpackMint(mintInfo.Data); err != nil || !mint.IsInitialized {
		return ErrUnexpectedAccount
	}
	custody, err := NewCapability(recordInfo.Key, ix.BumpSeed, programID)
	if err != nil {
		return err
	}
	if !custodianInfo.Key.Equals(custody.Authority()) {
		return ErrUnexpectedAccount
	}
	if err := p.checkLedger(ledgerInfo); err != nil {
		return err
	}

	rec = Record{
		BumpSeed:     ix.BumpSeed,
		OfferAccount: offerInfo.Key,
		Authority:    authority.Key,
		OfferAmount:  offer.Amount,
		TradeAmount:  ix.TradeAmount,
		Initialized:  true,
		TradeMint:    mintInfo.Key,
		ProgramID:    programID,
	}
	copy(recordInfo.Data, rec.Pack())
	ctx.Logf("Trade record initialised: offer %d for %d of %s", rec.OfferAmount, rec.TradeAmount, rec.TradeMint)

	ledger := p.ledger(ctx, p.params.TokenProgramID)
	if err := ledger.SetOwner(offerInfo.Key, custody.Authority(), Signer(authority.Key)); err != nil {
		return err
	}
	ctx.Logf("Custody of %s moved to %s", offerInfo.Key, custody.Authority())
	ctx.Emit(escrowEvent{evt: NewTradeCreatedEvent(recordInfo.Key, rec, custody.Authority())})
	return nil
}

func (p *Program) makeTrade(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, ix MakeTrade) error {
	if len(accounts) < 10 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	taker, recordInfo, custodianInfo, offerInfo := accounts[0], accounts[1], accounts[2], accounts[3]
	takerReceive, takerPay, makerReceive, maker := accounts[4], accounts[5], accounts[6], accounts[7]
	feeInfo, ledgerInfo := accounts[8], accounts[9]
	ctx.Logf("Making trade")

	if !taker.IsSigner {
		return ErrWrongAuthority
	}
	rec, err := UnpackRecord(recordInfo.Data)
	if err != nil {
		return err
	}
	if !rec.Initialized {
		return ErrTradeNotInitialised
	}
	if !offerInfo.Key.Equals(rec.OfferAccount) {
		return ErrWrongTokenAccount
	}
	if !rec.ProgramID.Equals(programID) {
		return trerrors.ErrIncorrectProgramID
	}
	pay, err := token.UnpackAccount(takerPay.Data)
	if err != nil {
		return err
	}
	if !pay.Mint.Equals(rec.TradeMint) {
		return ErrTradeMintMissmatch
	}
	if ix.ExpectedOffer != rec.OfferAmount {
		ctx.Logf("Expected offer of %d, but the record holds %d", ix.ExpectedOffer, rec.OfferAmount)
		return ErrUnexpectedOfferAmount
	}
	if ix.ExpectedTrade != rec.TradeAmount {
		ctx.Logf("Expected trade of %d, but the record holds %d", ix.ExpectedTrade, rec.TradeAmount)
		return ErrUnexpectedTradeAmount
	}
	feeAccount, err := p.params.FeeAccount(rec.TradeMint)
	if err != nil {
		return err
	}
	if !feeInfo.Key.Equals(feeAccount) {
		return ErrWrongAuthority
	}

	if !recordInfo.IsOwnedBy(programID) {
		return trerrors.ErrIncorrectProgramID
	}
	custody, err := NewCapability(recordInfo.Key, rec.BumpSeed, programID)
	if err != nil {
		return err
	}
	if !custodianInfo.Key.Equals(custody.Authority()) {
		return ErrUnexpectedAccount
	}
	if err := p.checkLedger(ledgerInfo); err != nil {
		return err
	}
	fee, proceeds, err := SettlementSplit(rec.OfferAmount, rec.TradeAmount, p.params.FeeBps)
	if err != nil {
		return err
	}
	if !makerReceive.IsOwnedBy(p.params.TokenProgramID) {
		return ErrUnexpectedAccount
	}
	if dst, err := token.UnpackAccount(makerReceive.Data); err != nil || !dst.Mint.Equals(rec.TradeMint) || !dst.Owner.Equals(rec.Authority) {
		return ErrUnexpectedAccount
	}
	if !maker.Key.Equals(rec.Authority) {
		return ErrWrongAuthority
	}

	ledger := p.ledger(ctx, p.params.TokenProgramID)
	ctx.Logf("Applying a fee of %d", fee)
	if err := ledger.Transfer(takerPay.Key, feeInfo.Key, fee, Signer(taker.Key)); err != nil {
		return err
	}
	if err := ledger.Transfer(offerInfo.Key, takerReceive.Key, rec.OfferAmount, custody); err != nil {
		return err
	}
	ctx.Logf("Offer of %d moved from %s to %s", rec.OfferAmount, offerInfo.Key, takerReceive.Key)
	if err := ledger.Transfer(takerPay.Key, makerReceive.Key, proceeds, Signer(taker.Key)); err != nil {
		return err
	}
	ctx.Logf("Trade of %d moved from %s to %s", proceeds, takerPay.Key, makerReceive.Key)

	refund := recordInfo.Lamports
	total, carry := bits.Add64(maker.Lamports, refund, 0)
	if carry != 0 {
		return ErrValueOverflow
	}
	maker.Lamports = total
	recordInfo.Lamports = 0
	clear(recordInfo.Data)
	ctx.Logf("Trade record closed, %d lamports returned to %s", refund, maker.Key)

	if err := ledger.SetOwner(offerInfo.Key, rec.Authority, custody); err != nil {
		return err
	}
	ctx.Logf("Custody of %s returned to %s", offerInfo.Key, rec.Authority)
	ctx.Emit(escrowEvent{evt: NewTradeSettledEvent(recordInfo.Key, rec, taker.Key, fee, refund)})
	return nil
}
