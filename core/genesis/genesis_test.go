package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"trader/core/runtime"
	"trader/core/state"
	"trader/native/escrow"
	"trader/storage"
)

func TestRegisterPrograms(t *testing.T) {
	st := state.NewManager(storage.NewMemDB())
	rt := runtime.New(st)
	escrowID := solana.NewWallet().PublicKey()

	prog, err := RegisterPrograms(rt, escrowID, escrow.DefaultParams())
	require.NoError(t, err)
	require.Equal(t, "escrow", prog.Name())

	for _, id := range []solana.PublicKey{solana.SystemProgramID, solana.TokenProgramID, solana.SPLAssociatedTokenAccountProgramID, escrowID} {
		acc, err := rt.GetAccount(id)
		require.NoError(t, err)
		require.NotNil(t, acc)
		require.True(t, acc.Executable)
	}

	_, err = RegisterPrograms(rt, escrowID, escrow.DefaultParams())
	require.ErrorIs(t, err, runtime.ErrDuplicateProgram)

	bad := escrow.DefaultParams()
	bad.FeeBps = escrow.MaxFeeBps + 1
	_, err = RegisterPrograms(runtime.New(st), escrowID, bad)
	require.Error(t, err)
}

func TestApplyAlloc(t *testing.T) {
	funded := solana.NewWallet().PublicKey()
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"alloc":{"`+funded.String()+`":5000}}`), 0o644))

	spec, err := LoadSpec(path)
	require.NoError(t, err)

	st := state.NewManager(storage.NewMemDB())
	require.NoError(t, ApplyAlloc(st, spec))
	acc, err := st.GetAccount(funded)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), acc.Lamports)

	acc.Lamports = 1
	require.NoError(t, st.PutAccount(funded, acc))
	require.NoError(t, ApplyAlloc(st, spec))
	acc, err = st.GetAccount(funded)
	require.NoError(t, err)
	require.Equal(t, uint64(1), acc.Lamports)

	require.Error(t, ApplyAlloc(st, &Spec{Alloc: map[string]uint64{"bogus": 1}}))
}
