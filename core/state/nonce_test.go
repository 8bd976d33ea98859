package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUseNonceRejectsReplay(t *testing.T) {
	mgr, _ := newTestManager(t)
	signer := key(0xA1)

	require.NoError(t, mgr.Atomic(func(l Ledger) error { return UseNonce(l, signer, 5) }))
	last, err := SignerNonce(mgr, signer)
	require.NoError(t, err)
	require.Equal(t, uint64(5), last)

	for _, stale := range []uint64{0, 4, 5} {
		err := mgr.Atomic(func(l Ledger) error { return UseNonce(l, signer, stale) })
		require.True(t, errors.Is(err, ErrNonceUsed), "nonce %d: %v", stale, err)
	}
	require.NoError(t, mgr.Atomic(func(l Ledger) error { return UseNonce(l, signer, 6) }))

	other, err := SignerNonce(mgr, key(0xB2))
	require.NoError(t, err)
	require.Zero(t, other)
}

func TestNonceOfFailedUnitIsNotConsumed(t *testing.T) {
	mgr, _ := newTestManager(t)
	signer := key(0xC3)
	boom := errors.New("boom")

	err := mgr.Atomic(func(l Ledger) error {
		require.NoError(t, UseNonce(l, signer, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mgr.Atomic(func(l Ledger) error { return UseNonce(l, signer, 1) }))
}

func TestKVSurvivesCommit(t *testing.T) {
	mgr, db := newTestManager(t)
	require.NoError(t, mgr.KVPut([]byte("settlement/x"), uint64(42)))
	_, err := mgr.Commit()
	require.NoError(t, err)

	reopened, err := Open(db)
	require.NoError(t, err)
	var got uint64
	ok, err := reopened.KVGet([]byte("settlement/x"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), got)

	ok, err = reopened.KVGet([]byte("settlement/y"), &got)
	require.NoError(t, err)
	require.False(t, ok)
	_, err = reopened.KVGet(nil, &got)
	require.Error(t, err)
}
