package types

import (
	"github.com/gagliardetto/solana-go"
)

// Account is the host ledger record stored under every address: a native
// balance, the program that owns the data, and the raw data bytes. An address
// with no Account is unallocated.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
}

// Clone returns a deep copy so callers can mutate the result without touching
// the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// DataIsEmpty mirrors the runtime notion of an account with no allocated data.
func (a *Account) DataIsEmpty() bool {
	return a == nil || len(a.Data) == 0
}

// IsOwnedBy reports whether program owns the account.
func (a *Account) IsOwnedBy(program solana.PublicKey) bool {
	return a != nil && a.Owner.Equals(program)
}
