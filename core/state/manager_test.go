package state

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"trader/core/types"
	"trader/storage"
)

func TestGetMissingAccount(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	acc, err := m.GetAccount(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Nil(t, acc)
}

func TestPutAndGetAccount(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	key := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	want := &types.Account{Lamports: 42, Owner: owner, Executable: true, Data: []byte{1, 2, 3}}
	require.NoError(t, m.PutAccount(key, want))

	got, err := m.GetAccount(key)
	require.NoError(t, err)
	require.True(t, want.Equal(got))
}

func TestCommitDeletesEmptyAccounts(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	keep := solana.NewWallet().PublicKey()
	drop := solana.NewWallet().PublicKey()
	require.NoError(t, m.PutAccount(drop, &types.Account{Lamports: 10, Owner: solana.SystemProgramID, Data: make([]byte, 8)}))

	var sig solana.Signature
	sig[0] = 1
	err := m.Commit(sig, map[solana.PublicKey]*types.Account{
		keep: {Lamports: 10, Owner: solana.SystemProgramID},
		drop: {Lamports: 0, Owner: solana.SystemProgramID, Data: make([]byte, 8)},
	})
	require.NoError(t, err)

	got, err := m.GetAccount(drop)
	require.NoError(t, err)
	require.Nil(t, got)
	got, err = m.GetAccount(keep)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.Lamports)

	done, err := m.IsProcessed(sig)
	require.NoError(t, err)
	require.True(t, done)
}

func TestCommitRejectsReplay(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	key := solana.NewWallet().PublicKey()
	var sig solana.Signature
	sig[5] = 9
	require.NoError(t, m.Commit(sig, map[solana.PublicKey]*types.Account{key: {Lamports: 1}}))
	err := m.Commit(sig, map[solana.PublicKey]*types.Account{key: {Lamports: 2}})
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	got, err := m.GetAccount(key)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.Lamports)
}
