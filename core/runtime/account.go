package runtime

import (
	"github.com/gagliardetto/solana-go"

	"trader/core/types"
)

// AccountInfo is the view of an account handed to a program. Entries that
// name the same key share one underlying Account, so a write through either
// is visible through both.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	*types.Account
}

// DataLen returns the length of the account data.
func (a *AccountInfo) DataLen() int { return len(a.Data) }

// IsOwnedBy reports whether program owns the account.
func (a *AccountInfo) IsOwnedBy(program solana.PublicKey) bool {
	return a.Owner.Equals(program)
}

// Meta converts the info back into an instruction account meta.
func (a *AccountInfo) Meta() types.AccountMeta {
	return types.Meta(a.Key, a.IsWritable, a.IsSigner)
}

// Next pops the first entry of accounts, failing with NotEnoughAccountKeys
// when none are left. Programs use it to walk their positional account list.
func Next(accounts *[]*AccountInfo) (*AccountInfo, error) {
	if len(*accounts) == 0 {
		return nil, errNotEnoughKeys
	}
	info := (*accounts)[0]
	*accounts = (*accounts)[1:]
	return info, nil
}
