package token

import (
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/native/common"
)

const (
	// MintSize is the encoded length of a Mint.
	MintSize = 82
	// AccountSize is the encoded length of a token Account.
	AccountSize = 165
)

// AccountState is the lifecycle of a token account.
type AccountState uint8

const (
	StateUninitialized AccountState = iota
	StateInitialized
	StateFrozen
)

// Mint describes one asset type. A zero MintAuthority means the supply is
// fixed.
type Mint struct {
	MintAuthority   solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority solana.PublicKey
}

// Account is a balance of one mint controlled by Owner.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	State  AccountState
}

// IsInitialized reports whether the account went through InitializeAccount.
func (a Account) IsInitialized() bool { return a.State != StateUninitialized }

func writeOption(w *common.Writer, key solana.PublicKey) {
	if key.IsZero() {
		w.U32(0).Key(solana.PublicKey{})
		return
	}
	w.U32(1).Key(key)
}

func readOption(r *common.Reader) solana.PublicKey {
	tag := r.U32()
	key := r.Key()
	if tag == 0 {
		return solana.PublicKey{}
	}
	return key
}

// Pack encodes the mint in its fixed layout.
func (m Mint) Pack() []byte {
	w := common.NewWriter()
	writeOption(w, m.MintAuthority)
	w.U64(m.Supply).U8(m.Decimals).Bool(m.IsInitialized)
	writeOption(w, m.FreezeAuthority)
	return w.Bytes()
}

// UnpackMint decodes a mint, failing on a wrong length.
func UnpackMint(data []byte) (Mint, error) {
	var m Mint
	if len(data) != MintSize {
		return m, trerrors.ErrInvalidAccountData
	}
	r := common.NewReader(data)
	m.MintAuthority = readOption(r)
	m.Supply = r.U64()
	m.Decimals = r.U8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = readOption(r)
	if err := r.Finish(); err != nil {
		return Mint{}, trerrors.ErrInvalidAccountData
	}
	return m, nil
}

// Pack encodes the account in its fixed layout. Delegation, native and
// close-authority fields are always empty.
func (a Account) Pack() []byte {
	w := common.NewWriter()
	w.Key(a.Mint).Key(a.Owner).U64(a.Amount)
	writeOption(w, solana.PublicKey{})
	w.U8(uint8(a.State))
	w.U32(0).U64(0)
	w.U64(0)
	writeOption(w, solana.PublicKey{})
	return w.Bytes()
}

// UnpackAccount decodes a token account, failing on a wrong length.
func UnpackAccount(data []byte) (Account, error) {
	var a Account
	if len(data) != AccountSize {
		return a, trerrors.ErrInvalidAccountData
	}
	r := common.NewReader(data)
	a.Mint = r.Key()
	a.Owner = r.Key()
	a.Amount = r.U64()
	r.Skip(36)
	a.State = AccountState(r.U8())
	r.Skip(12 + 8 + 36)
	if err := r.Finish(); err != nil || a.State > StateFrozen {
		return Account{}, trerrors.ErrInvalidAccountData
	}
	return a, nil
}
