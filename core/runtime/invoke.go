package runtime

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	trerrors "trader/core/errors"
	"trader/core/events"
	"trader/core/types"
	"trader/observability"
)

// txContext is the private working set of one transaction.
type txContext struct {
	rt       *Runtime
	verified map[solana.PublicKey]bool
	accounts map[solana.PublicKey]*types.Account
	original map[solana.PublicKey]*types.Account
	logs     []string
	events   []events.Event
}

// frame is one program invocation. pre holds the account state the frame is
// accountable from; it is refreshed after every nested call returns.
type frame struct {
	tc        *txContext
	programID solana.PublicKey
	depth     int
	pre       map[solana.PublicKey]*types.Account
	writable  map[solana.PublicKey]bool
	signer    map[solana.PublicKey]bool
}

func (tc *txContext) executeTop(ix types.Instruction) error {
	for _, meta := range ix.Accounts {
		if meta.IsSigner && !tc.verified[meta.PublicKey] {
			return fmt.Errorf("%w: %s", trerrors.ErrMissingRequiredSignature, meta.PublicKey)
		}
	}
	return tc.invoke(ix.ProgramID, ix.Accounts, ix.Data, 0)
}

func (tc *txContext) invoke(programID solana.PublicKey, metas []types.AccountMeta, data []byte, depth int) error {
	if depth > MaxInvokeDepth {
		return trerrors.ErrCallDepth
	}
	prog, ok := tc.rt.program(programID)
	programAccount := tc.accounts[programID]
	if !ok || programAccount == nil || !programAccount.Executable {
		return fmt.Errorf("%w: %s", trerrors.ErrUnsupportedProgramID, programID)
	}

	infos := make([]*AccountInfo, len(metas))
	f := &frame{
		tc:        tc,
		programID: programID,
		depth:     depth,
		writable:  make(map[solana.PublicKey]bool, len(metas)),
		signer:    make(map[solana.PublicKey]bool, len(metas)),
	}
	for i, meta := range metas {
		account, ok := tc.accounts[meta.PublicKey]
		if !ok {
			return fmt.Errorf("%w: %s", trerrors.ErrMissingAccount, meta.PublicKey)
		}
		infos[i] = &AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    account,
		}
		f.writable[meta.PublicKey] = f.writable[meta.PublicKey] || meta.IsWritable
		f.signer[meta.PublicKey] = f.signer[meta.PublicKey] || meta.IsSigner
	}
	f.snapshot()

	observability.Runtime().RecordInstruction(prog.Name(), depth)
	tc.logs = append(tc.logs, fmt.Sprintf("Program %s invoke [%d]", programID, depth+1))
	if err := prog.Process(f, programID, infos, data); err != nil {
		tc.logs = append(tc.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
		return err
	}
	if err := f.verify(); err != nil {
		tc.logs = append(tc.logs, fmt.Sprintf("Program %s failed: %v", programID, err))
		return err
	}
	tc.logs = append(tc.logs, fmt.Sprintf("Program %s success", programID))
	return nil
}

func (f *frame) snapshot() {
	f.pre = make(map[solana.PublicKey]*types.Account, len(f.writable))
	for key := range f.writable {
		f.pre[key] = f.tc.accounts[key].Clone()
	}
}

// verify checks that every change made since the last snapshot is one the
// frame's program was entitled to make.
func (f *frame) verify() error {
	var preSum, postSum uint256.Int
	for key, before := range f.pre {
		after := f.tc.accounts[key]
		preSum.Add(&preSum, uint256.NewInt(before.Lamports))
		postSum.Add(&postSum, uint256.NewInt(after.Lamports))
		if err := verifyAccount(f.programID, before, after, f.writable[key]); err != nil {
			return fmt.Errorf("%w: %s", err, key)
		}
	}
	if !preSum.Eq(&postSum) {
		return trerrors.ErrUnbalancedInstruction
	}
	return nil
}

func verifyAccount(programID solana.PublicKey, before, after *types.Account, writable bool) error {
	if !writable {
		if !before.Equal(after) {
			return trerrors.ErrReadonlyAccountModified
		}
		return nil
	}
	if before.Executable != after.Executable {
		return trerrors.ErrExecutableModified
	}
	owned := before.Owner.Equals(programID)
	if !before.Owner.Equals(after.Owner) && (!owned || !isZeroed(after.Data)) {
		return trerrors.ErrModifiedProgramID
	}
	if after.Lamports < before.Lamports && !owned {
		return trerrors.ErrExternalAccountLamportSpend
	}
	if !owned && !bytes.Equal(before.Data, after.Data) {
		return trerrors.ErrExternalAccountDataModified
	}
	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Rent implements Context.
func (f *frame) Rent() Rent { return f.tc.rt.rent }

// Logf implements Context.
func (f *frame) Logf(format string, args ...any) {
	f.tc.logs = append(f.tc.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// Emit implements Context.
func (f *frame) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	f.tc.events = append(f.tc.events, evt)
}

// Invoke implements Context.
func (f *frame) Invoke(ix types.Instruction) error {
	return f.InvokeSigned(ix)
}

// InvokeSigned implements Context. The callee only sees accounts the caller
// holds, never with more privilege than the caller has, except that
// addresses derived from signerSeeds and the caller's program id are
// granted signer privilege.
func (f *frame) InvokeSigned(ix types.Instruction, signerSeeds ...[][]byte) error {
	if f.depth+1 > MaxInvokeDepth {
		return trerrors.ErrCallDepth
	}
	if _, ok := f.pre[ix.ProgramID]; !ok {
		return fmt.Errorf("%w: program %s", trerrors.ErrMissingAccount, ix.ProgramID)
	}
	derived := make(map[solana.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := solana.CreateProgramAddress(seeds, f.programID)
		if err != nil {
			return trerrors.ErrInvalidSeeds
		}
		derived[addr] = true
	}
	for _, meta := range ix.Accounts {
		if _, ok := f.pre[meta.PublicKey]; !ok {
			return fmt.Errorf("%w: %s", trerrors.ErrMissingAccount, meta.PublicKey)
		}
		if meta.IsWritable && !f.writable[meta.PublicKey] {
			return fmt.Errorf("%w: %s writable", trerrors.ErrPrivilegeEscalation, meta.PublicKey)
		}
		if meta.IsSigner && !f.signer[meta.PublicKey] && !derived[meta.PublicKey] {
			return fmt.Errorf("%w: %s signer", trerrors.ErrPrivilegeEscalation, meta.PublicKey)
		}
	}
	if err := f.verify(); err != nil {
		return err
	}
	if err := f.tc.invoke(ix.ProgramID, ix.Accounts, ix.Data, f.depth+1); err != nil {
		return err
	}
	f.snapshot()
	return nil
}
