package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"auctionhouse/core/events"
	"auctionhouse/core/types"
	"auctionhouse/storage"
	"auctionhouse/storage/trie"
)

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) { r.events = append(r.events, evt) }

func newTestManager(t *testing.T) (*Manager, storage.Database) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr), db
}

func key(fill byte) [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = fill
	}
	return k
}

func TestManagerAccountRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	acc := &types.Account{Lamports: 42, Owner: key(0x09), Data: []byte{7}}
	require.NoError(t, mgr.PutAccount(key(1), acc))

	got, err := mgr.GetAccount(key(1))
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Lamports)
	require.Equal(t, []byte{7}, got.Data)
	require.True(t, got.IsOwnedBy(key(0x09)))

	missing, err := mgr.GetAccount(key(2))
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, mgr.PutAccount(key(1), &types.Account{}))
	gone, err := mgr.GetAccount(key(1))
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestAtomicDiscardsFailedUnit(t *testing.T) {
	mgr, _ := newTestManager(t)
	rec := &recordingEmitter{}
	mgr.SetEmitter(rec)
	require.NoError(t, mgr.PutAccount(key(1), &types.Account{Lamports: 10}))
	before := mgr.Hash()

	boom := errors.New("boom")
	err := mgr.Atomic(func(l Ledger) error {
		if err := l.PutAccount(key(1), &types.Account{Lamports: 1}); err != nil {
			return err
		}
		if err := l.PutAccount(key(2), &types.Account{Lamports: 5}); err != nil {
			return err
		}
		l.AppendEvent(&types.Event{Type: "test.partial"})
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, before, mgr.Hash())
	require.Empty(t, rec.events)

	acc, err := mgr.GetAccount(key(1))
	require.NoError(t, err)
	require.Equal(t, uint64(10), acc.Lamports)
	acc2, err := mgr.GetAccount(key(2))
	require.NoError(t, err)
	require.Nil(t, acc2)
}

func TestAtomicAppliesUnitAndEmits(t *testing.T) {
	mgr, _ := newTestManager(t)
	rec := &recordingEmitter{}
	mgr.SetEmitter(rec)

	err := mgr.Atomic(func(l Ledger) error {
		l.AppendEvent(&types.Event{Type: "test.outer"})
		nested, ok := l.(Store)
		require.True(t, ok)
		return nested.Atomic(func(inner Ledger) error {
			inner.AppendEvent(&types.Event{Type: "test.inner"})
			return inner.PutAccount(key(3), &types.Account{Lamports: 9})
		})
	})
	require.NoError(t, err)
	acc, err := mgr.GetAccount(key(3))
	require.NoError(t, err)
	require.Equal(t, uint64(9), acc.Lamports)
	require.Len(t, rec.events, 2)
	require.Equal(t, "test.outer", rec.events[0].EventType())
	require.Equal(t, "test.inner", rec.events[1].EventType())
}

func TestCommitAndReopen(t *testing.T) {
	mgr, db := newTestManager(t)
	require.NoError(t, mgr.PutAccount(key(4), &types.Account{Lamports: 77}))
	root, err := mgr.Commit()
	require.NoError(t, err)
	require.Equal(t, uint64(1), mgr.Seq())

	reopened, err := Open(db)
	require.NoError(t, err)
	require.Equal(t, root, reopened.Hash())
	require.Equal(t, uint64(1), reopened.Seq())
	acc, err := reopened.GetAccount(key(4))
	require.NoError(t, err)
	require.Equal(t, uint64(77), acc.Lamports)
}

func TestRentMinimumBalance(t *testing.T) {
	rent := DefaultRent()
	require.Equal(t, uint64(890_880), rent.MinimumBalance(0))
	require.Equal(t, uint64(897_840), rent.MinimumBalance(1))
	require.True(t, rent.IsExempt(897_840, 1))
	require.False(t, rent.IsExempt(897_839, 1))
}
