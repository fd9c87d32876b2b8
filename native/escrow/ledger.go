package escrow

import (
	"github.com/gagliardetto/solana-go"

	"trader/core/runtime"
	"trader/core/types"
	"trader/native/token"
)

// Ledger is the token ledger surface the handlers need. Implementations
// must accept both a Signer and a Capability as authorization.
type Ledger interface {
	Transfer(source, destination solana.PublicKey, amount uint64, auth Authorization) error
	// SetOwner hands control of account to newOwner.
	SetOwner(account, newOwner solana.PublicKey, auth Authorization) error
}

// LedgerFactory builds the ledger used for one instruction.
type LedgerFactory func(ctx runtime.Context, tokenProgram solana.PublicKey) Ledger

// RuntimeLedger drives the token program through cross-program invocation.
// A Capability becomes the signer seeds of the call.
type RuntimeLedger struct {
	ctx          runtime.Context
	tokenProgram solana.PublicKey
}

// NewRuntimeLedger is the default LedgerFactory.
func NewRuntimeLedger(ctx runtime.Context, tokenProgram solana.PublicKey) Ledger {
	return &RuntimeLedger{ctx: ctx, tokenProgram: tokenProgram}
}

func (l *RuntimeLedger) Transfer(source, destination solana.PublicKey, amount uint64, auth Authorization) error {
	return l.invoke(token.Transfer(l.tokenProgram, source, destination, auth.Authority(), amount), auth)
}

func (l *RuntimeLedger) SetOwner(account, newOwner solana.PublicKey, auth Authorization) error {
	return l.invoke(token.SetAuthority(l.tokenProgram, account, auth.Authority(), token.AuthorityAccountOwner, newOwner), auth)
}

func (l *RuntimeLedger) invoke(ix types.Instruction, auth Authorization) error {
	if seeds := auth.signerSeeds(); seeds != nil {
		return l.ctx.InvokeSigned(ix, seeds)
	}
	return l.ctx.Invoke(ix)
}
