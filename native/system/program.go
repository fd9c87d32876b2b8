package system

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/runtime"
	"trader/core/types"
	"trader/native/common"
)

// MaxPermittedDataLength caps the space CreateAccount may allocate.
const MaxPermittedDataLength = 10 * 1024 * 1024

const (
	tagCreateAccount uint32 = 0
	tagTransfer      uint32 = 2
)

// Error is a system program failure reported as a custom code.
type Error uint32

const (
	ErrAccountAlreadyInUse Error = iota
	ErrResultWithNegativeLamports
	ErrInvalidProgramID
	ErrInvalidAccountDataLength
)

var errorNames = map[Error]string{
	ErrAccountAlreadyInUse:        "AccountAlreadyInUse",
	ErrResultWithNegativeLamports: "ResultWithNegativeLamports",
	ErrInvalidProgramID:           "InvalidProgramId",
	ErrInvalidAccountDataLength:   "InvalidAccountDataLength",
}

func (e Error) Name() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("SystemError(%d)", uint32(e))
}

func (e Error) Error() string      { return "system program: " + e.Name() }
func (e Error) CustomCode() uint32 { return uint32(e) }

// Program is the system program. It owns every fresh account and is the
// only way to allocate space and move lamports between plain accounts.
type Program struct{}

// New returns the system program.
func New() *Program { return &Program{} }

func (p *Program) Name() string { return "system" }

// Process implements runtime.Program.
func (p *Program) Process(ctx runtime.Context, programID solana.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	r := common.NewReader(data)
	switch tag := r.U32(); {
	case r.Err() != nil:
		return r.Err()
	case tag == tagCreateAccount:
		lamports, space, owner := r.U64(), r.U64(), r.Key()
		if err := r.Finish(); err != nil {
			return err
		}
		return createAccount(ctx, accounts, lamports, space, owner)
	case tag == tagTransfer:
		lamports := r.U64()
		if err := r.Finish(); err != nil {
			return err
		}
		return transfer(ctx, accounts, lamports)
	default:
		return fmt.Errorf("%w: unknown system instruction %d", trerrors.ErrInvalidInstructionData, tag)
	}
}

func createAccount(ctx runtime.Context, accounts []*runtime.AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if len(accounts) < 2 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	from, to := accounts[0], accounts[1]
	if !from.IsSigner || !to.IsSigner {
		return trerrors.ErrMissingRequiredSignature
	}
	if to.Lamports > 0 || len(to.Data) > 0 || !to.Owner.Equals(solana.SystemProgramID) {
		ctx.Logf("Create Account: account %s already in use", to.Key)
		return ErrAccountAlreadyInUse
	}
	if space > MaxPermittedDataLength {
		return ErrInvalidAccountDataLength
	}
	if err := move(ctx, from, to, lamports); err != nil {
		return err
	}
	to.Data = make([]byte, space)
	to.Owner = owner
	return nil
}

func transfer(ctx runtime.Context, accounts []*runtime.AccountInfo, lamports uint64) error {
	if len(accounts) < 2 {
		return trerrors.ErrNotEnoughAccountKeys
	}
	from, to := accounts[0], accounts[1]
	if !from.IsSigner {
		return trerrors.ErrMissingRequiredSignature
	}
	if len(from.Data) > 0 {
		ctx.Logf("Transfer: `from` must not carry data")
		return trerrors.ErrInvalidArgument
	}
	return move(ctx, from, to, lamports)
}

func move(ctx runtime.Context, from, to *runtime.AccountInfo, lamports uint64) error {
	if from.Lamports < lamports {
		ctx.Logf("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return ErrResultWithNegativeLamports
	}
	if from.Key.Equals(to.Key) {
		return nil
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

// CreateAccount builds an instruction that funds newAccount with lamports,
// allocates space bytes and assigns it to owner. Both accounts must sign.
func CreateAccount(from, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) types.Instruction {
	data := common.NewWriter().U32(tagCreateAccount).U64(lamports).U64(space).Key(owner).Bytes()
	return types.NewInstruction(solana.SystemProgramID, []types.AccountMeta{
		types.Meta(from, true, true),
		types.Meta(newAccount, true, true),
	}, data)
}

// Transfer builds a lamport transfer signed by from.
func Transfer(from, to solana.PublicKey, lamports uint64) types.Instruction {
	data := common.NewWriter().U32(tagTransfer).U64(lamports).Bytes()
	return types.NewInstruction(solana.SystemProgramID, []types.AccountMeta{
		types.Meta(from, true, true),
		types.Meta(to, true, false),
	}, data)
}
