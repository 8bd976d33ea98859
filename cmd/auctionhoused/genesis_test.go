package main

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/config"
	"auctionhouse/core/state"
	"auctionhouse/native/system"
	"auctionhouse/storage"
)

func TestGenesisAppliesOnce(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr, err := state.Open(db)
	require.NoError(t, err)

	addr := solana.NewWallet().PublicKey()
	allocs := []config.Allocation{{Address: addr.String(), Lamports: 5_000}}
	applied, err := applyGenesis(mgr, allocs)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = applyGenesis(mgr, allocs)
	require.NoError(t, err)
	require.False(t, applied)

	reopened, err := state.Open(db)
	require.NoError(t, err)
	balance, err := system.Balance(reopened, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(5_000), balance)
}

func TestGenesisRejectsBadAddress(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr, err := state.Open(db)
	require.NoError(t, err)
	_, err = applyGenesis(mgr, []config.Allocation{{Address: "nope", Lamports: 1}})
	require.Error(t, err)
	require.Equal(t, uint64(0), mgr.Seq())
}
