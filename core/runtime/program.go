package runtime

import (
	"github.com/gagliardetto/solana-go"

	"trader/core/events"
	"trader/core/types"
)

// NativeLoaderID owns every program account registered with the runtime.
var NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// MaxInvokeDepth bounds nested cross-program invocations.
const MaxInvokeDepth = 4

// Program is a native program executed by the runtime. accounts follow the
// positional order of the instruction; data is the raw instruction payload.
type Program interface {
	Name() string
	Process(ctx Context, programID solana.PublicKey, accounts []*AccountInfo, data []byte) error
}

// Context is the runtime surface available to an executing program.
type Context interface {
	Rent() Rent
	// Logf appends a program log line to the transaction result.
	Logf(format string, args ...any)
	// Emit buffers an event that is delivered only if the transaction commits.
	Emit(evt events.Event)
	// Invoke calls another program with privileges inherited from the caller.
	Invoke(ix types.Instruction) error
	// InvokeSigned is Invoke where each seed set derives, together with the
	// caller's program id, an address that is granted signer privilege.
	InvokeSigned(ix types.Instruction, signerSeeds ...[][]byte) error
}
