package token

import "fmt"

// Error is a token ledger failure. Codes follow the SPL token program so
// clients can decode them with existing tooling.
type Error uint32

const (
	ErrNotRentExempt      Error = 0
	ErrInsufficientFunds  Error = 1
	ErrInvalidMint        Error = 2
	ErrMintMismatch       Error = 3
	ErrOwnerMismatch      Error = 4
	ErrFixedSupply        Error = 5
	ErrAlreadyInUse       Error = 6
	ErrUninitializedState Error = 9
	ErrInvalidState       Error = 13
	ErrOverflow           Error = 14
	ErrAuthorityType      Error = 15
	ErrInvalidAssociated  Error = 100
)

var errorNames = map[Error]string{
	ErrNotRentExempt:      "NotRentExempt",
	ErrInsufficientFunds:  "InsufficientFunds",
	ErrInvalidMint:        "InvalidMint",
	ErrMintMismatch:       "MintMismatch",
	ErrOwnerMismatch:      "OwnerMismatch",
	ErrFixedSupply:        "FixedSupply",
	ErrAlreadyInUse:       "AlreadyInUse",
	ErrUninitializedState: "UninitializedState",
	ErrInvalidState:       "InvalidState",
	ErrOverflow:           "Overflow",
	ErrAuthorityType:      "AuthorityTypeNotSupported",
	ErrInvalidAssociated:  "InvalidAssociatedAddress",
}

func (e Error) Name() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("TokenError(%d)", uint32(e))
}

func (e Error) Error() string      { return "token: " + e.Name() }
func (e Error) CustomCode() uint32 { return uint32(e) }
