// Package genesis registers the native programs and seeds initial balances.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gagliardetto/solana-go"

	"trader/core/runtime"
	"trader/core/state"
	"trader/core/types"
	"trader/crypto"
	"trader/native/escrow"
	"trader/native/system"
	"trader/native/token"
)

// Spec is the optional genesis file.
type Spec struct {
	// Alloc maps a base58 address to its initial lamports.
	Alloc map[string]uint64 `json:"alloc"`
}

// LoadSpec reads a JSON genesis file.
func LoadSpec(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec := &Spec{}
	if err := json.Unmarshal(raw, spec); err != nil {
		return nil, fmt.Errorf("genesis: decode %s: %w", path, err)
	}
	return spec, nil
}

// ApplyAlloc funds every allocation whose account does not exist yet, so a
// restarted node never re-credits an address.
func ApplyAlloc(st *state.Manager, spec *Spec) error {
	if spec == nil {
		return nil
	}
	addrs := make([]string, 0, len(spec.Alloc))
	for addr := range spec.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		key, err := crypto.ParseAddress(addr)
		if err != nil {
			return fmt.Errorf("genesis: alloc: %w", err)
		}
		existing, err := st.GetAccount(key)
		if err != nil {
			return err
		}
		if existing.Exists() || spec.Alloc[addr] == 0 {
			continue
		}
		account := &types.Account{Lamports: spec.Alloc[addr], Owner: solana.SystemProgramID}
		if err := st.PutAccount(key, account); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPrograms installs the system, token, associated token and escrow
// programs.
func RegisterPrograms(rt *runtime.Runtime, escrowID solana.PublicKey, params escrow.Params, opts ...escrow.Option) (*escrow.Program, error) {
	prog, err := escrow.NewProgram(params, opts...)
	if err != nil {
		return nil, err
	}
	programs := []struct {
		id   solana.PublicKey
		prog runtime.Program
	}{
		{solana.SystemProgramID, system.New()},
		{params.TokenProgramID, token.New()},
		{params.AssociatedProgramID, token.NewAssociated()},
		{escrowID, prog},
	}
	for _, p := range programs {
		if err := rt.Register(p.id, p.prog); err != nil {
			return nil, fmt.Errorf("genesis: register %s: %w", p.prog.Name(), err)
		}
	}
	return prog, nil
}
