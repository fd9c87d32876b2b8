package types

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is a ledger entry addressed by a 32-byte public key. Lamports are
// the native balance; Data is interpreted only by the Owner program.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Executable bool             `json:"executable"`
	Data       []byte           `json:"data"`
}

// Clone returns a deep copy so callers can mutate the result without touching
// the original.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Owner: solana.SystemProgramID}
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// Equal reports whether both accounts hold identical state.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Lamports == other.Lamports &&
		a.Owner.Equals(other.Owner) &&
		a.Executable == other.Executable &&
		bytes.Equal(a.Data, other.Data)
}

// Exists reports whether the account carries any state. An account with zero
// lamports is removed when the enclosing transaction commits.
func (a *Account) Exists() bool {
	return a != nil && (a.Lamports > 0 || len(a.Data) > 0 || a.Executable)
}
