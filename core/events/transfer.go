package events

import (
	"github.com/gagliardetto/solana-go"

	"trader/core/types"
)

const (
	// TypeTokenTransfer is emitted for every token ledger balance movement.
	TypeTokenTransfer = "token.transfer"
	// TypeTokenMint is emitted when new units are minted.
	TypeTokenMint = "token.mint"
	// TypeTokenAuthority is emitted when a token account or mint changes
	// its controlling authority.
	TypeTokenAuthority = "token.authority"
)

type TokenTransfer struct {
	Mint        solana.PublicKey
	Source      solana.PublicKey
	Destination solana.PublicKey
	Authority   solana.PublicKey
	Amount      uint64
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"mint":        keyString(e.Mint),
		"source":      keyString(e.Source),
		"destination": keyString(e.Destination),
		"authority":   keyString(e.Authority),
		"amount":      formatAmount(e.Amount),
	}}
}

type TokenMint struct {
	Mint        solana.PublicKey
	Destination solana.PublicKey
	Amount      uint64
}

func (TokenMint) EventType() string { return TypeTokenMint }

func (e TokenMint) Event() *types.Event {
	return &types.Event{Type: TypeTokenMint, Attributes: map[string]string{
		"mint":        keyString(e.Mint),
		"destination": keyString(e.Destination),
		"amount":      formatAmount(e.Amount),
	}}
}

type TokenAuthority struct {
	Account  solana.PublicKey
	Kind     string
	Previous solana.PublicKey
	Current  solana.PublicKey
}

func (TokenAuthority) EventType() string { return TypeTokenAuthority }

func (e TokenAuthority) Event() *types.Event {
	attrs := map[string]string{
		"account":  keyString(e.Account),
		"kind":     e.Kind,
		"previous": keyString(e.Previous),
	}
	if current := keyString(e.Current); current != "" {
		attrs["current"] = current
	}
	return &types.Event{Type: TypeTokenAuthority, Attributes: attrs}
}
