package escrow

import (
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
)

// DeriveAuthority finds the custodial authority of record: an address with
// no private key, derived from the record address and programID, together
// with the bump seed that pushes it off the ed25519 curve. The search starts
// at 255 and walks down.
func DeriveAuthority(record, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{record[:]}, programID)
}

// AuthorityFor re-derives the custodial authority from a stored bump. It
// fails with InvalidSeeds when the bump lands on the curve.
func AuthorityFor(record solana.PublicKey, bump uint8, programID solana.PublicKey) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress(authoritySeeds(record, bump), programID)
	if err != nil {
		return solana.PublicKey{}, trerrors.ErrInvalidSeeds
	}
	return addr, nil
}

func authoritySeeds(record solana.PublicKey, bump uint8) [][]byte {
	return [][]byte{record[:], {bump}}
}

// Authorization is how a ledger call proves it may move an account: either a
// real signature or the program's derived capability. The set is closed.
type Authorization interface {
	// Authority is the identity the ledger checks against the account owner.
	Authority() solana.PublicKey
	signerSeeds() [][]byte
}

// Signer authorizes through a signature already present on the transaction.
type Signer solana.PublicKey

func (s Signer) Authority() solana.PublicKey { return solana.PublicKey(s) }

func (Signer) signerSeeds() [][]byte { return nil }

// Capability is the keyless custodial authority of one record. The engine
// "signs" with it by reconstructing the derivation; it is never persisted
// as a key.
type Capability struct {
	Record    solana.PublicKey
	Bump      uint8
	ProgramID solana.PublicKey
	address   solana.PublicKey
}

// NewCapability validates the derivation and returns the capability.
func NewCapability(record solana.PublicKey, bump uint8, programID solana.PublicKey) (Capability, error) {
	addr, err := AuthorityFor(record, bump, programID)
	if err != nil {
		return Capability{}, err
	}
	return Capability{Record: record, Bump: bump, ProgramID: programID, address: addr}, nil
}

func (c Capability) Authority() solana.PublicKey { return c.address }

func (c Capability) signerSeeds() [][]byte { return authoritySeeds(c.Record, c.Bump) }
