package state

import (
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"trader/core/types"
	"trader/storage"
)

var (
	accountPrefix   = []byte("account:")
	processedPrefix = []byte("processed:")
)

// ErrAlreadyProcessed is returned by Commit when the transaction signature
// has already been committed.
var ErrAlreadyProcessed = errors.New("state: transaction already processed")

// storedAccount is the rlp layout persisted for every account.
type storedAccount struct {
	Lamports   uint64
	Owner      [32]byte
	Executable bool
	Data       []byte
}

func accountKey(key solana.PublicKey) []byte {
	buf := make([]byte, len(accountPrefix)+len(key))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], key[:])
	return ethcrypto.Keccak256(buf)
}

func processedKey(sig solana.Signature) []byte {
	buf := make([]byte, len(processedPrefix)+len(sig))
	copy(buf, processedPrefix)
	copy(buf[len(processedPrefix):], sig[:])
	return ethcrypto.Keccak256(buf)
}

// Manager reads accounts from the backing store and applies the write set of
// a transaction as one atomic batch.
type Manager struct {
	db storage.Database
	// mu serialises commits so the processed check and the batch write
	// cannot interleave between two transactions carrying the same signature.
	mu sync.Mutex
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// GetAccount returns a copy of the stored account or nil when the key holds
// no account.
func (m *Manager) GetAccount(key solana.PublicKey) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", key, err)
	}
	return &types.Account{
		Lamports:   stored.Lamports,
		Owner:      solana.PublicKeyFromBytes(stored.Owner[:]),
		Executable: stored.Executable,
		Data:       stored.Data,
	}, nil
}

func encodeAccount(account *types.Account) ([]byte, error) {
	stored := storedAccount{
		Lamports:   account.Lamports,
		Owner:      [32]byte(account.Owner),
		Executable: account.Executable,
		Data:       account.Data,
	}
	return rlp.EncodeToBytes(&stored)
}

// PutAccount writes a single account outside of any transaction. It is used
// to seed genesis state.
func (m *Manager) PutAccount(key solana.PublicKey, account *types.Account) error {
	if !account.Exists() {
		return m.db.Delete(accountKey(key))
	}
	raw, err := encodeAccount(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(key), raw)
}

// IsProcessed reports whether a transaction with the signature was committed.
func (m *Manager) IsProcessed(sig solana.Signature) (bool, error) {
	return m.db.Has(processedKey(sig))
}

// Commit writes every account in the set and records the signature in a
// single batch. Accounts left without lamports are deleted. Either all
// writes become visible or none do.
func (m *Manager) Commit(sig solana.Signature, accounts map[solana.PublicKey]*types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	done, err := m.db.Has(processedKey(sig))
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyProcessed
	}
	batch := m.db.NewBatch()
	for key, account := range accounts {
		if account == nil || account.Lamports == 0 {
			batch.Delete(accountKey(key))
			continue
		}
		raw, err := encodeAccount(account)
		if err != nil {
			return fmt.Errorf("state: encode account %s: %w", key, err)
		}
		batch.Put(accountKey(key), raw)
	}
	batch.Put(processedKey(sig), []byte{1})
	return batch.Write()
}
