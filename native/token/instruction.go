package token

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/types"
	"trader/native/common"
)

const (
	tagInitializeMint    uint8 = 0
	tagInitializeAccount uint8 = 1
	tagTransfer          uint8 = 3
	tagSetAuthority      uint8 = 6
	tagMintTo            uint8 = 7
)

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
	AuthorityAccountOwner
	AuthorityCloseAccount
)

func (a AuthorityType) String() string {
	switch a {
	case AuthorityMintTokens:
		return "MintTokens"
	case AuthorityFreezeAccount:
		return "FreezeAccount"
	case AuthorityAccountOwner:
		return "AccountOwner"
	case AuthorityCloseAccount:
		return "CloseAccount"
	default:
		return fmt.Sprintf("AuthorityType(%d)", uint8(a))
	}
}

type instruction struct {
	tag           uint8
	decimals      uint8
	amount        uint64
	authority     solana.PublicKey
	authorityType AuthorityType
}

func decodeInstruction(data []byte) (instruction, error) {
	r := common.NewReader(data)
	ix := instruction{tag: r.U8()}
	switch ix.tag {
	case tagInitializeMint:
		ix.decimals = r.U8()
		ix.authority = r.Key()
		if r.U8() != 0 {
			r.Key()
		}
	case tagInitializeAccount:
	case tagTransfer, tagMintTo:
		ix.amount = r.U64()
	case tagSetAuthority:
		ix.authorityType = AuthorityType(r.U8())
		if r.U8() == 1 {
			ix.authority = r.Key()
		}
	default:
		if r.Err() == nil {
			return ix, fmt.Errorf("%w: unknown token instruction %d", trerrors.ErrInvalidInstructionData, ix.tag)
		}
	}
	return ix, r.Finish()
}

// InitializeMint builds an instruction initializing mint with decimals and
// a mint authority. The freeze authority is always unset.
func InitializeMint(programID, mint, authority solana.PublicKey, decimals uint8) types.Instruction {
	data := common.NewWriter().U8(tagInitializeMint).U8(decimals).Key(authority).U8(0).Bytes()
	return types.NewInstruction(programID, []types.AccountMeta{types.Meta(mint, true, false)}, data)
}

// InitializeAccount builds an instruction binding account to mint and owner.
func InitializeAccount(programID, account, mint, owner solana.PublicKey) types.Instruction {
	return types.NewInstruction(programID, []types.AccountMeta{
		types.Meta(account, true, false),
		types.Meta(mint, false, false),
		types.Meta(owner, false, false),
	}, []byte{tagInitializeAccount})
}

// Transfer builds a transfer of amount from source to destination signed by
// authority.
func Transfer(programID, source, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	data := common.NewWriter().U8(tagTransfer).U64(amount).Bytes()
	return types.NewInstruction(programID, []types.AccountMeta{
		types.Meta(source, true, false),
		types.Meta(destination, true, false),
		types.Meta(authority, false, true),
	}, data)
}

// SetAuthority builds an instruction replacing the kind authority of
// account. A zero newAuthority clears it where the kind allows.
func SetAuthority(programID, account, current solana.PublicKey, kind AuthorityType, newAuthority solana.PublicKey) types.Instruction {
	w := common.NewWriter().U8(tagSetAuthority).U8(uint8(kind))
	if newAuthority.IsZero() {
		w.U8(0)
	} else {
		w.U8(1).Key(newAuthority)
	}
	return types.NewInstruction(programID, []types.AccountMeta{
		types.Meta(account, true, false),
		types.Meta(current, false, true),
	}, w.Bytes())
}

// MintTo builds an instruction minting amount new units into destination.
func MintTo(programID, mint, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	data := common.NewWriter().U8(tagMintTo).U64(amount).Bytes()
	return types.NewInstruction(programID, []types.AccountMeta{
		types.Meta(mint, true, false),
		types.Meta(destination, true, false),
		types.Meta(authority, false, true),
	}, data)
}
