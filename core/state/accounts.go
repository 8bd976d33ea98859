package state

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"auctionhouse/core/types"
)

var accountPrefix = []byte("account:")

func accountStateKey(addr [32]byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

// GetAccount returns a copy of the account stored at addr, or nil when the
// address holds nothing.
func (m *Manager) GetAccount(addr [32]byte) (*types.Account, error) {
	data, err := m.trie.Get(accountStateKey(addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return account, nil
}

// PutAccount stores account at addr. An account with neither lamports nor
// data is indistinguishable from an unallocated address and is deleted.
func (m *Manager) PutAccount(addr [32]byte, account *types.Account) error {
	if account == nil || (account.Lamports == 0 && len(account.Data) == 0) {
		return m.DeleteAccount(addr)
	}
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.trie.Update(accountStateKey(addr), encoded)
}

// DeleteAccount removes the account at addr, returning the address to the
// unallocated pool.
func (m *Manager) DeleteAccount(addr [32]byte) error {
	return m.trie.Delete(accountStateKey(addr))
}
