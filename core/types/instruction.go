package types

import (
	"github.com/gagliardetto/solana-go"
)

// AccountMeta names an account referenced by an instruction together with the
// privileges the instruction requests for it.
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"isSigner"`
	IsWritable bool             `json:"isWritable"`
}

// Meta builds an AccountMeta.
func Meta(key solana.PublicKey, writable, signer bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

// Instruction is a single call into a program: the program identifier, the
// positional account list and the opaque instruction payload.
type Instruction struct {
	ProgramID solana.PublicKey `json:"programId"`
	Accounts  []AccountMeta    `json:"accounts"`
	Data      []byte           `json:"data"`
}

// NewInstruction builds an instruction, copying the supplied payload.
func NewInstruction(programID solana.PublicKey, accounts []AccountMeta, data []byte) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts:  append([]AccountMeta(nil), accounts...),
		Data:      append([]byte(nil), data...),
	}
}

// Keys returns the distinct account keys referenced by the instruction,
// including the program identifier, in first-seen order.
func (ix Instruction) Keys() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(ix.Accounts)+1)
	out := make([]solana.PublicKey, 0, len(ix.Accounts)+1)
	for _, meta := range ix.Accounts {
		if _, ok := seen[meta.PublicKey]; ok {
			continue
		}
		seen[meta.PublicKey] = struct{}{}
		out = append(out, meta.PublicKey)
	}
	if _, ok := seen[ix.ProgramID]; !ok {
		out = append(out, ix.ProgramID)
	}
	return out
}
