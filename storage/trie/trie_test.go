package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"auctionhouse/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("key"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit(1)
	require.NoError(t, err)

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestForkIsolatesMutations(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	key := crypto.Keccak256([]byte("escrow"))
	require.NoError(t, tr.Update(key, []byte{1}))
	before := tr.Hash()

	staged := tr.Fork()
	require.NoError(t, staged.Delete(key))
	require.NotEqual(t, before, staged.Hash())

	got, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, got)
	require.Equal(t, before, tr.Hash())

	missing, err := staged.Get(key)
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestCommitAdvancesCommittedRoot(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	empty := tr.Committed()

	require.NoError(t, tr.Update(crypto.Keccak256([]byte("fee_payer")), []byte{7}))
	require.Equal(t, empty, tr.Committed())
	pending := tr.Hash()

	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, pending, root)
	require.Equal(t, root, tr.Committed())
}
