package token

import (
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/runtime"
	"trader/core/types"
	"trader/native/system"
)

// ProgramID and AssociatedProgramID are the well-known addresses the node
// registers the ledger programs under.
var (
	ProgramID           = solana.TokenProgramID
	AssociatedProgramID = solana.SPLAssociatedTokenAccountProgramID
)

const (
	tagCreateAssociated           uint8 = 0
	tagCreateAssociatedIdempotent uint8 = 1
)

// FindAssociatedAddress derives the canonical token account of wallet for
// mint under the given programs.
func FindAssociatedAddress(wallet, mint, tokenProgram, associatedProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{wallet[:], tokenProgram[:], mint[:]}, associatedProgram)
}

// AssociatedAddress derives the canonical token account of wallet for mint
// under the well-known program ids.
func AssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return addr, err
}

// AssociatedProgram creates canonical token accounts at addresses derived
// from (wallet, token program, mint).
type AssociatedProgram struct{}

// NewAssociated returns the associated-account program.
func NewAssociated() *AssociatedProgram { return &AssociatedProgram{} }

func (p *AssociatedProgram) Name() string { return "associated-token" }

// Process implements runtime.Program. Accounts: [0] payer (w,s),
// [1] associated account (w), [2] wallet, [3] mint, [4] system program,
// [5] token program.
func (p *AssociatedProgram) Process(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	idempotent := false
	switch {
	case len(data) == 0 || (len(data) == 1 && data[0] == tagCreateAssociated):
	case len(data) == 1 && data[0] == tagCreateAssociatedIdempotent:
		idempotent = true
	default:
		return trerrors.ErrInvalidInstructionData
	}
	if len(accounts) < 6 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	payer, assoc, wallet, mint, systemProgram, tokenProgram := accounts[0], accounts[1], accounts[2], accounts[3], accounts[4], accounts[5]

	expected, bump, err := FindAssociatedAddress(wallet.Key, mint.Key, tokenProgram.Key, programID)
	if err != nil {
		return err
	}
	if !expected.Equals(assoc.Key) {
		ctx.Logf("Error: associated address does not match seed derivation")
		return ErrInvalidAssociated
	}
	if !systemProgram.Key.Equals(solana.SystemProgramID) {
		return trerrors.ErrIncorrectProgramID
	}

	if idempotent && assoc.IsOwnedBy(tokenProgram.Key) {
		existing, err := UnpackAccount(assoc.Data)
		if err != nil {
			return err
		}
		if !existing.Owner.Equals(wallet.Key) || !existing.Mint.Equals(mint.Key) {
			return trerrors.ErrIncorrectProgramID
		}
		return nil
	}

	ctx.Logf("Create")
	seeds := [][]byte{wallet.Key[:], tokenProgram.Key[:], mint.Key[:], {bump}}
	create := system.CreateAccount(payer.Key, assoc.Key, ctx.Rent().MinimumBalance(AccountSize), AccountSize, tokenProgram.Key)
	if err := ctx.InvokeSigned(create, seeds); err != nil {
		return err
	}
	ctx.Logf("Initialize the associated token account")
	return ctx.Invoke(InitializeAccount(tokenProgram.Key, assoc.Key, mint.Key, wallet.Key))
}

// CreateAssociated builds the instruction creating wallet's canonical
// account for mint, paid by payer. With idempotent set an existing matching
// account is accepted.
func CreateAssociated(payer, wallet, mint solana.PublicKey, idempotent bool) (types.Instruction, solana.PublicKey, error) {
	assoc, _, err := FindAssociatedAddress(wallet, mint, ProgramID, AssociatedProgramID)
	if err != nil {
		return types.Instruction{}, solana.PublicKey{}, err
	}
	tag := tagCreateAssociated
	if idempotent {
		tag = tagCreateAssociatedIdempotent
	}
	ix := types.NewInstruction(AssociatedProgramID, []types.AccountMeta{
		types.Meta(payer, true, true),
		types.Meta(assoc, true, false),
		types.Meta(wallet, false, false),
		types.Meta(mint, false, false),
		types.Meta(solana.SystemProgramID, false, false),
		types.Meta(ProgramID, false, false),
	}, []byte{tag})
	return ix, assoc, nil
}
