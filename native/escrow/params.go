package escrow

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"trader/native/token"
)

// DefaultFeeBeneficiary collects protocol fees unless configured otherwise.
var DefaultFeeBeneficiary = solana.MustPublicKeyFromBase58("8VtktqchqCSowPhdiZfuMez8HqrRf2LRPcdwjvGNiumX")

var (
	errBeneficiaryRequired = errors.New("escrow: fee beneficiary required")
	errFeeBpsRange         = errors.New("escrow: fee bps out of range")
	errLedgerRequired      = errors.New("escrow: ledger program ids required")
)

// Params are fixed when the program is instantiated.
type Params struct {
	// FeeBeneficiary owns the canonical fee account of every trade mint.
	FeeBeneficiary      solana.PublicKey
	FeeBps              uint32
	TokenProgramID      solana.PublicKey
	AssociatedProgramID solana.PublicKey
}

// DefaultParams returns a 1% fee paid to DefaultFeeBeneficiary on the
// well-known token programs.
func DefaultParams() Params {
	return Params{
		FeeBeneficiary:      DefaultFeeBeneficiary,
		FeeBps:              DefaultFeeBps,
		TokenProgramID:      token.ProgramID,
		AssociatedProgramID: token.AssociatedProgramID,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	if p.FeeBeneficiary.IsZero() {
		return errBeneficiaryRequired
	}
	if p.FeeBps > MaxFeeBps {
		return fmt.Errorf("%w: %d", errFeeBpsRange, p.FeeBps)
	}
	if p.TokenProgramID.IsZero() || p.AssociatedProgramID.IsZero() {
		return errLedgerRequired
	}
	return nil
}

// FeeAccount derives the only account allowed to receive fees in mint.
func (p Params) FeeAccount(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := token.FindAssociatedAddress(p.FeeBeneficiary, mint, p.TokenProgramID, p.AssociatedProgramID)
	return addr, err
}
