package runtime

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	trerrors "trader/core/errors"
	"trader/core/events"
	"trader/core/state"
	"trader/core/types"
	"trader/observability"
)

// ErrInsufficientFundsForRent is returned when a transaction leaves a data
// account below its rent-exempt reserve.
var ErrInsufficientFundsForRent = errors.New("runtime: account left below rent-exempt reserve")

// Result describes an executed transaction. It is returned alongside the
// error for failed transactions so callers still see the program logs.
type Result struct {
	Signature solana.Signature
	Logs      []string
	Events    []events.Event
}

// Runtime executes transactions against the account state.
type Runtime struct {
	state    *state.Manager
	rent     Rent
	emitter  events.Emitter
	logger   *slog.Logger
	airdrop  bool
	locks    *lockTable
	airdrops atomic.Uint64

	mu       sync.RWMutex
	programs map[solana.PublicKey]Program
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRent overrides the rent parameters.
func WithRent(r Rent) Option { return func(rt *Runtime) { rt.rent = r } }

// WithEmitter sets the emitter receiving committed events.
func WithEmitter(e events.Emitter) Option {
	return func(rt *Runtime) {
		if e != nil {
			rt.emitter = e
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithAirdrop enables the lamport faucet.
func WithAirdrop(enabled bool) Option { return func(rt *Runtime) { rt.airdrop = enabled } }

// New creates a runtime over the supplied state.
func New(st *state.Manager, opts ...Option) *Runtime {
	rt := &Runtime{
		state:    st,
		rent:     DefaultRent(),
		emitter:  events.NoopEmitter{},
		logger:   slog.Default(),
		locks:    newLockTable(),
		programs: make(map[solana.PublicKey]Program),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Rent returns the rent parameters in force.
func (rt *Runtime) Rent() Rent { return rt.rent }

// Register installs a native program under id and ensures an executable
// account exists for it.
func (rt *Runtime) Register(id solana.PublicKey, prog Program) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, id)
	}
	existing, err := rt.state.GetAccount(id)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Executable {
		account := &types.Account{Lamports: 1, Owner: NativeLoaderID, Executable: true, Data: []byte(prog.Name())}
		if err := rt.state.PutAccount(id, account); err != nil {
			return err
		}
	}
	rt.programs[id] = prog
	return nil
}

func (rt *Runtime) program(id solana.PublicKey) (Program, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	prog, ok := rt.programs[id]
	return prog, ok
}

// GetAccount returns the committed account stored under key, or nil.
func (rt *Runtime) GetAccount(key solana.PublicKey) (*types.Account, error) {
	return rt.state.GetAccount(key)
}

// Airdrop credits lamports to the key out of thin air. It is a development
// faucet and must be enabled with WithAirdrop.
func (rt *Runtime) Airdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if !rt.airdrop {
		return solana.Signature{}, ErrAirdropDisabled
	}
	if lamports == 0 {
		return solana.Signature{}, ErrInvalidAirdrop
	}
	write := []solana.PublicKey{to}
	if err := rt.locks.acquire(ctx, write, nil); err != nil {
		return solana.Signature{}, err
	}
	defer rt.locks.release(write, nil)

	current, err := rt.state.GetAccount(to)
	if err != nil {
		return solana.Signature{}, err
	}
	account := current.Clone()
	sum, carry := bits.Add64(account.Lamports, lamports, 0)
	if carry != 0 {
		return solana.Signature{}, trerrors.ErrArithmeticOverflow
	}
	account.Lamports = sum

	sig := airdropSignature(to, lamports, rt.airdrops.Add(1))
	if err := rt.state.Commit(sig, map[solana.PublicKey]*types.Account{to: account}); err != nil {
		return solana.Signature{}, err
	}
	rt.logger.Info("airdrop", "address", to.String(), "lamports", lamports, "signature", sig.String())
	return sig, nil
}

func airdropSignature(to solana.PublicKey, lamports, seq uint64) solana.Signature {
	var buf [8 + 8 + 8]byte
	binary.LittleEndian.PutUint64(buf[0:], lamports)
	binary.LittleEndian.PutUint64(buf[8:], seq)
	binary.LittleEndian.PutUint64(buf[16:], uint64(time.Now().UnixNano()))
	var sig solana.Signature
	copy(sig[:32], ethcrypto.Keccak256([]byte("airdrop"), to[:], buf[:]))
	copy(sig[32:], ethcrypto.Keccak256(sig[:32]))
	return sig
}

// Process verifies, executes and commits tx. Either every instruction
// succeeds and the resulting state is committed in one batch, or nothing is
// written.
func (rt *Runtime) Process(ctx context.Context, tx *types.Transaction) (*Result, error) {
	start := time.Now()
	res, err := rt.process(ctx, tx)

	outcome := "committed"
	var ixErr *InstructionError
	switch {
	case err == nil:
		rt.logger.Info("transaction committed",
			"signature", res.Signature.String(),
			"instructions", len(tx.Message.Instructions))
	case errors.As(err, &ixErr):
		outcome = "failed"
		name, code, _, _ := trerrors.Describe(err)
		rt.logger.Warn("transaction failed",
			"signature", tx.ID().String(),
			"instruction", ixErr.Index,
			"code", code,
			"reason", name,
			"error", err)
	default:
		outcome = "rejected"
		rt.logger.Warn("transaction rejected", "error", err)
	}
	observability.Runtime().ObserveTransaction(outcome, time.Since(start))
	return res, err
}

func (rt *Runtime) process(ctx context.Context, tx *types.Transaction) (*Result, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	if len(tx.Message.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	if len(tx.Message.Signers) == 0 {
		return nil, ErrUnsigned
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	verified, err := tx.VerifySignatures()
	if err != nil {
		return nil, err
	}
	sig := tx.ID()
	done, err := rt.state.IsProcessed(sig)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, state.ErrAlreadyProcessed
	}

	write, read := lockSets(tx.Message.Instructions)
	if err := rt.locks.acquire(ctx, write, read); err != nil {
		return nil, err
	}
	defer rt.locks.release(write, read)

	tc := &txContext{
		rt:       rt,
		verified: verified,
		accounts: make(map[solana.PublicKey]*types.Account, len(write)+len(read)),
		original: make(map[solana.PublicKey]*types.Account, len(write)+len(read)),
	}
	for _, keys := range [][]solana.PublicKey{write, read} {
		for _, key := range keys {
			stored, err := rt.state.GetAccount(key)
			if err != nil {
				return nil, err
			}
			tc.original[key] = stored.Clone()
			tc.accounts[key] = stored.Clone()
		}
	}

	res := &Result{Signature: sig}
	for i, ix := range tx.Message.Instructions {
		if err := ctx.Err(); err != nil {
			res.Logs = tc.logs
			return res, err
		}
		if err := tc.executeTop(ix); err != nil {
			res.Logs = tc.logs
			return res, &InstructionError{Index: i, Err: err}
		}
	}
	res.Logs = tc.logs

	changed := make(map[solana.PublicKey]*types.Account)
	for _, key := range write {
		after := tc.accounts[key]
		if after.Equal(tc.original[key]) {
			continue
		}
		if after.Lamports > 0 && len(after.Data) > 0 && !rt.rent.IsExempt(after.Lamports, len(after.Data)) {
			return res, fmt.Errorf("%w: %s", ErrInsufficientFundsForRent, key)
		}
		changed[key] = after
	}
	if err := rt.state.Commit(sig, changed); err != nil {
		return res, err
	}

	res.Events = tc.events
	for _, evt := range tc.events {
		rt.emitter.Emit(evt)
		observability.Events().RecordEmitted(evt.EventType())
	}
	return res, nil
}

// lockSets splits the keys referenced by instructions into write and read
// sets. A key requested writable anywhere is locked for writing.
func lockSets(instructions []types.Instruction) (write, read []solana.PublicKey) {
	writable := make(map[solana.PublicKey]bool)
	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			writable[meta.PublicKey] = writable[meta.PublicKey] || meta.IsWritable
		}
		if _, ok := writable[ix.ProgramID]; !ok {
			writable[ix.ProgramID] = false
		}
	}
	for key, w := range writable {
		if w {
			write = append(write, key)
		} else {
			read = append(read, key)
		}
	}
	sort.Slice(write, func(i, j int) bool { return lessKey(write[i], write[j]) })
	sort.Slice(read, func(i, j int) bool { return lessKey(read[i], read[j]) })
	return write, read
}

func lessKey(a, b solana.PublicKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
