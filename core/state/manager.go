package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"auctionhouse/core/events"
	"auctionhouse/core/types"
	"auctionhouse/storage"
	"auctionhouse/storage/trie"
)

var (
	headRootKey = []byte("state/head-root")
	headSeqKey  = []byte("state/head-seq")
	kvPrefix    = []byte("kv:")
)

// Ledger is the account view handed to a single operation. Every read and
// write of one unit goes through the same Ledger so the unit can be applied or
// discarded as a whole.
type Ledger interface {
	// GetAccount returns the account stored at key or nil when the address is
	// unallocated.
	GetAccount(key [32]byte) (*types.Account, error)
	PutAccount(key [32]byte, account *types.Account) error
	DeleteAccount(key [32]byte) error
	Rent() Rent
	AppendEvent(evt *types.Event)
	// KVPut and KVGet hold non-account records keyed by byte strings.
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// Store runs operations as atomic units.
type Store interface {
	Atomic(fn func(Ledger) error) error
}

// Manager provides account storage on top of the account trie and doubles as
// the transactional store: Atomic stages a unit on a copy of the trie and
// swaps it in only when the unit succeeds.
//
// Manager is not safe for concurrent use; callers serialise units.
type Manager struct {
	trie    *trie.Trie
	rent    Rent
	seq     uint64
	staged  []*types.Event
	emitter events.Emitter
	child   bool
}

// NewManager creates a state manager operating on the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr, rent: DefaultRent(), emitter: events.NoopEmitter{}}
}

// Open loads the last committed state from db, or an empty trie when nothing
// has been committed yet.
func Open(db storage.Database) (*Manager, error) {
	var root []byte
	stored, err := db.Get(headRootKey)
	switch {
	case err == nil:
		root = stored
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("state: load head root: %w", err)
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("state: open trie: %w", err)
	}
	mgr := NewManager(tr)
	if raw, err := db.Get(headSeqKey); err == nil && len(raw) == 8 {
		mgr.seq = binary.BigEndian.Uint64(raw)
	}
	return mgr, nil
}

// SetRent overrides the rent schedule used for rent-exempt floors.
func (m *Manager) SetRent(r Rent) { m.rent = r }

// SetEmitter configures the emitter that receives events of committed units.
// Passing nil resets the emitter to a no-op implementation.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// Rent returns the rent schedule.
func (m *Manager) Rent() Rent { return m.rent }

// Atomic runs fn against a staged copy of the state. When fn returns nil the
// staged accounts and events replace the current ones; otherwise nothing fn
// wrote is observable. Units may nest: a unit started from a staged Ledger
// folds into its parent.
func (m *Manager) Atomic(fn func(Ledger) error) error {
	if fn == nil {
		return nil
	}
	unit := &Manager{trie: m.trie.Fork(), rent: m.rent, seq: m.seq, child: true}
	if err := fn(unit); err != nil {
		return err
	}
	m.trie = unit.trie
	for _, evt := range unit.staged {
		m.AppendEvent(evt)
	}
	return nil
}

// AppendEvent records an event. Events of a staged unit are held until the
// unit is applied; the root manager forwards them to its emitter.
func (m *Manager) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	if m.child {
		m.staged = append(m.staged, evt.Clone())
		return
	}
	if m.emitter != nil {
		m.emitter.Emit(ledgerEvent{evt: evt.Clone()})
	}
}

// Commit persists the trie and records the new root as the head.
func (m *Manager) Commit() (common.Hash, error) {
	if m.child {
		return common.Hash{}, fmt.Errorf("state: commit on staged unit")
	}
	next := m.seq + 1
	root, err := m.trie.Commit(next)
	if err != nil {
		return common.Hash{}, fmt.Errorf("state: commit trie: %w", err)
	}
	store := m.trie.Store()
	if err := store.Put(headRootKey, root.Bytes()); err != nil {
		return common.Hash{}, fmt.Errorf("state: store head root: %w", err)
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], next)
	if err := store.Put(headSeqKey, seq[:]); err != nil {
		return common.Hash{}, fmt.Errorf("state: store head seq: %w", err)
	}
	m.seq = next
	return root, nil
}

// Hash returns the root hash reflecting all applied units, committed or not.
func (m *Manager) Hash() common.Hash { return m.trie.Hash() }

// Seq returns the number of commits applied so far.
func (m *Manager) Seq() uint64 { return m.seq }

// KVPut RLP-encodes value into the trie under key. Bookkeeping records such
// as signer nonces and settlement totals live here, next to the accounts, so
// they are staged and committed with the unit that wrote them.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	slot, err := kvSlot(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.trie.Update(slot, encoded)
}

// KVGet decodes the record under key into out and reports whether it exists.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	slot, err := kvSlot(key)
	if err != nil {
		return false, err
	}
	raw, err := m.trie.Get(slot)
	switch {
	case err != nil:
		return false, err
	case len(raw) == 0:
		return false, nil
	case out == nil:
		return true, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// kvSlot keeps record keys apart from account keys by hashing them under
// their own prefix.
func kvSlot(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("state: empty record key")
	}
	return ethcrypto.Keccak256(kvPrefix, key), nil
}

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ledgerEvent) Event() *types.Event { return e.evt }
