package runtime

import (
	"errors"
	"fmt"

	trerrors "trader/core/errors"
)

var (
	ErrNilTransaction   = errors.New("runtime: nil transaction")
	ErrEmptyTransaction = errors.New("runtime: transaction has no instructions")
	ErrUnsigned         = errors.New("runtime: transaction carries no signature")
	ErrDuplicateProgram = errors.New("runtime: program already registered")
	ErrAirdropDisabled  = errors.New("runtime: airdrop disabled")
	ErrInvalidAirdrop   = errors.New("runtime: invalid airdrop amount")

	errNotEnoughKeys = trerrors.ErrNotEnoughAccountKeys
)

// InstructionError reports which instruction of a transaction failed.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
