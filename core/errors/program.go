package errors

import (
	stderrors "errors"
	"fmt"
)

// ProgramError enumerates the failures every program and the runtime share.
// Program specific failures are reported through CustomError instead.
type ProgramError uint8

const (
	ErrInvalidArgument ProgramError = iota + 1
	ErrInvalidInstructionData
	ErrInvalidAccountData
	ErrAccountDataTooSmall
	ErrInsufficientFunds
	ErrIncorrectProgramID
	ErrMissingRequiredSignature
	ErrAccountAlreadyInitialized
	ErrUninitializedAccount
	ErrNotEnoughAccountKeys
	ErrAccountNotRentExempt
	ErrInvalidSeeds
	ErrArithmeticOverflow
	ErrAccountNotWritable
	ErrUnbalancedInstruction
	ErrExternalAccountDataModified
	ErrExternalAccountLamportSpend
	ErrReadonlyAccountModified
	ErrModifiedProgramID
	ErrExecutableModified
	ErrPrivilegeEscalation
	ErrUnsupportedProgramID
	ErrCallDepth
	ErrMissingAccount
)

var programErrorNames = map[ProgramError]string{
	ErrInvalidArgument:             "InvalidArgument",
	ErrInvalidInstructionData:      "InvalidInstructionData",
	ErrInvalidAccountData:          "InvalidAccountData",
	ErrAccountDataTooSmall:         "AccountDataTooSmall",
	ErrInsufficientFunds:           "InsufficientFunds",
	ErrIncorrectProgramID:          "IncorrectProgramId",
	ErrMissingRequiredSignature:    "MissingRequiredSignature",
	ErrAccountAlreadyInitialized:   "AccountAlreadyInitialized",
	ErrUninitializedAccount:        "UninitializedAccount",
	ErrNotEnoughAccountKeys:        "NotEnoughAccountKeys",
	ErrAccountNotRentExempt:        "AccountNotRentExempt",
	ErrInvalidSeeds:                "InvalidSeeds",
	ErrArithmeticOverflow:          "ArithmeticOverflow",
	ErrAccountNotWritable:          "AccountNotWritable",
	ErrUnbalancedInstruction:       "UnbalancedInstruction",
	ErrExternalAccountDataModified: "ExternalAccountDataModified",
	ErrExternalAccountLamportSpend: "ExternalAccountLamportSpend",
	ErrReadonlyAccountModified:     "ReadonlyAccountModified",
	ErrModifiedProgramID:           "ModifiedProgramId",
	ErrExecutableModified:          "ExecutableModified",
	ErrPrivilegeEscalation:         "PrivilegeEscalation",
	ErrUnsupportedProgramID:        "UnsupportedProgramId",
	ErrCallDepth:                   "CallDepth",
	ErrMissingAccount:              "MissingAccount",
}

// Name returns the stable identifier of the error.
func (e ProgramError) Name() string {
	if name, ok := programErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ProgramError(%d)", uint8(e))
}

func (e ProgramError) Error() string { return "program error: " + e.Name() }

// CustomError is implemented by program specific error types. The code is
// stable and is what external callers assert on.
type CustomError interface {
	error
	CustomCode() uint32
	Name() string
}

// Describe extracts a stable name and code from err. Custom errors report
// custom=true with their program defined code; builtin errors report their
// ProgramError value as the code.
func Describe(err error) (name string, code uint32, custom bool, ok bool) {
	var ce CustomError
	if stderrors.As(err, &ce) {
		return ce.Name(), ce.CustomCode(), true, true
	}
	var pe ProgramError
	if stderrors.As(err, &pe) {
		return pe.Name(), uint32(pe), false, true
	}
	return "", 0, false, false
}
