package token

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/events"
	"trader/core/runtime"
)

// Program is the token ledger: mints, balances and the authorities allowed
// to move them.
type Program struct{}

// New returns the token ledger program.
func New() *Program { return &Program{} }

func (p *Program) Name() string { return "token" }

// Process implements runtime.Program.
func (p *Program) Process(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	ix, err := decodeInstruction(data)
	if err != nil {
		return err
	}
	switch ix.tag {
	case tagInitializeMint:
		ctx.Logf("Instruction: InitializeMint")
		return initializeMint(ctx, programID, accounts, ix)
	case tagInitializeAccount:
		ctx.Logf("Instruction: InitializeAccount")
		return initializeAccount(ctx, programID, accounts)
	case tagTransfer:
		ctx.Logf("Instruction: Transfer")
		return transfer(ctx, programID, accounts, ix.amount)
	case tagSetAuthority:
		ctx.Logf("Instruction: SetAuthority")
		return setAuthority(ctx, programID, accounts, ix)
	case tagMintTo:
		ctx.Logf("Instruction: MintTo")
		return mintTo(ctx, programID, accounts, ix.amount)
	default:
		return trerrors.ErrInvalidInstructionData
	}
}

func owned(info *runtime.AccountInfo, programID solana.PublicKey) error {
	if !info.IsOwnedBy(programID) {
		return trerrors.ErrIncorrectProgramID
	}
	return nil
}

func loadMint(info *runtime.AccountInfo, programID solana.PublicKey) (Mint, error) {
	if err := owned(info, programID); err != nil {
		return Mint{}, err
	}
	mint, err := UnpackMint(info.Data)
	if err != nil {
		return Mint{}, err
	}
	if !mint.IsInitialized {
		return Mint{}, ErrUninitializedState
	}
	return mint, nil
}

func loadAccount(info *runtime.AccountInfo, programID solana.PublicKey) (Account, error) {
	if err := owned(info, programID); err != nil {
		return Account{}, err
	}
	acc, err := UnpackAccount(info.Data)
	if err != nil {
		return Account{}, err
	}
	if !acc.IsInitialized() {
		return Account{}, ErrUninitializedState
	}
	return acc, nil
}

func initializeMint(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, ix instruction) error {
	info, err := runtime.Next(&accounts)
	if err != nil {
		return err
	}
	if err := owned(info, programID); err != nil {
		return err
	}
	mint, err := UnpackMint(info.Data)
	if err != nil {
		return err
	}
	if mint.IsInitialized {
		return ErrAlreadyInUse
	}
	if !ctx.Rent().IsExempt(info.Lamports, len(info.Data)) {
		return ErrNotRentExempt
	}
	mint = Mint{MintAuthority: ix.authority, Decimals: ix.decimals, IsInitialized: true}
	copy(info.Data, mint.Pack())
	return nil
}

func initializeAccount(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo) error {
	if len(accounts) < 3 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	info, mintInfo, owner := accounts[0], accounts[1], accounts[2]
	if err := owned(info, programID); err != nil {
		return err
	}
	acc, err := UnpackAccount(info.Data)
	if err != nil {
		return err
	}
	if acc.IsInitialized() {
		return ErrAlreadyInUse
	}
	if !ctx.Rent().IsExempt(info.Lamports, len(info.Data)) {
		return ErrNotRentExempt
	}
	if _, err := loadMint(mintInfo, programID); err != nil {
		return ErrInvalidMint
	}
	acc = Account{Mint: mintInfo.Key, Owner: owner.Key, State: StateInitialized}
	copy(info.Data, acc.Pack())
	return nil
}

func transfer(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, amount uint64) error {
	if len(accounts) < 3 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	srcInfo, dstInfo, authority := accounts[0], accounts[1], accounts[2]
	src, err := loadAccount(srcInfo, programID)
	if err != nil {
		return err
	}
	dst, err := loadAccount(dstInfo, programID)
	if err != nil {
		return err
	}
	if src.State == StateFrozen || dst.State == StateFrozen {
		return ErrInvalidState
	}
	if !src.Mint.Equals(dst.Mint) {
		return ErrMintMismatch
	}
	if !src.Owner.Equals(authority.Key) {
		return ErrOwnerMismatch
	}
	if !authority.IsSigner {
		return trerrors.ErrMissingRequiredSignature
	}
	if src.Amount < amount {
		ctx.Logf("Error: insufficient funds")
		return ErrInsufficientFunds
	}
	if srcInfo.Key.Equals(dstInfo.Key) {
		return nil
	}
	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	src.Amount -= amount
	dst.Amount = sum
	copy(srcInfo.Data, src.Pack())
	copy(dstInfo.Data, dst.Pack())
	ctx.Emit(events.TokenTransfer{
		Mint:        src.Mint,
		Source:      srcInfo.Key,
		Destination: dstInfo.Key,
		Authority:   authority.Key,
		Amount:      amount,
	})
	return nil
}

func setAuthority(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, ix instruction) error {
	if len(accounts) < 2 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	info, current := accounts[0], accounts[1]
	if err := owned(info, programID); err != nil {
		return err
	}
	switch len(info.Data) {
	case AccountSize:
		if ix.authorityType != AuthorityAccountOwner {
			return ErrAuthorityType
		}
		acc, err := loadAccount(info, programID)
		if err != nil {
			return err
		}
		if !acc.Owner.Equals(current.Key) {
			return ErrOwnerMismatch
		}
		if !current.IsSigner {
			return trerrors.ErrMissingRequiredSignature
		}
		if ix.authority.IsZero() {
			return trerrors.ErrInvalidArgument
		}
		acc.Owner = ix.authority
		copy(info.Data, acc.Pack())
	case MintSize:
		if ix.authorityType != AuthorityMintTokens {
			return ErrAuthorityType
		}
		mint, err := loadMint(info, programID)
		if err != nil {
			return err
		}
		if mint.MintAuthority.IsZero() {
			return ErrFixedSupply
		}
		if !mint.MintAuthority.Equals(current.Key) {
			return ErrOwnerMismatch
		}
		if !current.IsSigner {
			return trerrors.ErrMissingRequiredSignature
		}
		mint.MintAuthority = ix.authority
		copy(info.Data, mint.Pack())
	default:
		return trerrors.ErrInvalidAccountData
	}
	ctx.Emit(events.TokenAuthority{
		Account:  info.Key,
		Kind:     ix.authorityType.String(),
		Previous: current.Key,
		Current:  ix.authority,
	})
	return nil
}

func mintTo(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, amount uint64) error {
	if len(accounts) < 3 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	mintInfo, dstInfo, authority := accounts[0], accounts[1], accounts[2]
	mint, err := loadMint(mintInfo, programID)
	if err != nil {
		return err
	}
	dst, err := loadAccount(dstInfo, programID)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mintInfo.Key) {
		return ErrMintMismatch
	}
	if mint.MintAuthority.IsZero() {
		return ErrFixedSupply
	}
	if !mint.MintAuthority.Equals(authority.Key) {
		return ErrOwnerMismatch
	}
	if !authority.IsSigner {
		return trerrors.ErrMissingRequiredSignature
	}
	supply, carry := bits.Add64(mint.Supply, amount, 0)
	if carry != 0 {
		return ErrOverflow
	}
	mint.Supply = supply
	dst.Amount += amount
	copy(mintInfo.Data, mint.Pack())
	copy(dstInfo.Data, dst.Pack())
	ctx.Emit(events.TokenMint{Mint: mintInfo.Key, Destination: dstInfo.Key, Amount: amount})
	return nil
}
