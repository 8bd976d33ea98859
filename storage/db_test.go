package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBGetMissingKey(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("absent"))
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLevelDBGetMissingKey(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("absent"))
	require.ErrorIs(t, err, ErrNotFound)
	require.NotNil(t, db.TrieDB())
}
