package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"auctionhouse/storage"
)

// Trie is the account trie of the node. Keys are keccak256 digests computed
// by the caller; values are opaque.
//
// A Trie remembers the root it was opened at or last committed. Fork hands
// out an independent working copy so an atomic unit can be thrown away
// without touching the parent. Not safe for concurrent use.
type Trie struct {
	store     storage.Database
	nodes     *triedb.Database
	mpt       *gethtrie.Trie
	committed common.Hash
}

// NewTrie opens the trie at root. A nil or empty root opens the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	at := gethtypes.EmptyRootHash
	if len(root) > 0 {
		at = common.BytesToHash(root)
	}
	nodes := store.TrieDB()
	mpt, err := gethtrie.New(gethtrie.TrieID(at), nodes)
	if err != nil {
		return nil, fmt.Errorf("trie: open at %s: %w", at, err)
	}
	return &Trie{store: store, nodes: nodes, mpt: mpt, committed: at}, nil
}

func (t *Trie) Get(key []byte) ([]byte, error) { return t.mpt.Get(key) }

func (t *Trie) Update(key, value []byte) error { return t.mpt.Update(key, value) }

// Delete removes key. Missing keys are ignored.
func (t *Trie) Delete(key []byte) error { return t.mpt.Delete(key) }

// Hash is the root over all uncommitted writes.
func (t *Trie) Hash() common.Hash { return t.mpt.Hash() }

// Committed is the root last opened or written to disk.
func (t *Trie) Committed() common.Hash { return t.committed }

// Fork returns a working copy sharing the node database. Writes to the fork
// are invisible to t.
func (t *Trie) Fork() *Trie {
	return &Trie{store: t.store, nodes: t.nodes, mpt: t.mpt.Copy(), committed: t.committed}
}

// Commit flushes dirty nodes as state number seq and reopens the trie at the
// new root.
func (t *Trie) Commit(seq uint64) (common.Hash, error) {
	root, dirty := t.mpt.Commit(false)
	if dirty != nil {
		set := trienode.NewMergedNodeSet()
		if err := set.Merge(dirty); err != nil {
			return common.Hash{}, fmt.Errorf("trie: merge nodes: %w", err)
		}
		if err := t.nodes.Update(root, t.committed, seq, set, nil); err != nil {
			return common.Hash{}, fmt.Errorf("trie: update %d: %w", seq, err)
		}
		if err := t.nodes.Commit(root, false); err != nil {
			return common.Hash{}, fmt.Errorf("trie: flush %s: %w", root, err)
		}
	}
	mpt, err := gethtrie.New(gethtrie.TrieID(root), t.nodes)
	if err != nil {
		return common.Hash{}, fmt.Errorf("trie: reopen at %s: %w", root, err)
	}
	t.mpt = mpt
	t.committed = root
	return root, nil
}

// Store is the key-value backend, used for bookkeeping keys next to the
// trie nodes.
func (t *Trie) Store() storage.Database { return t.store }
