package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/system"
)

// CreateTradeState materializes the intent named by key, funded by payer.
// Only the canonical bump is accepted. An intent that already exists is left
// alone and reported with created=false.
func CreateTradeState(l state.Ledger, payer solana.PublicKey, key TradeStateKey, bump uint8) (addr solana.PublicKey, created bool, err error) {
	addr, canonical, err := key.Find()
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	if bump != canonical {
		return solana.PublicKey{}, false, fail(ErrInvalidTradeStateAddress, "bump %d, canonical %d", bump, canonical)
	}
	acc, err := l.GetAccount(addr)
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	if !acc.DataIsEmpty() {
		if !acc.IsOwnedBy(ProgramID) {
			return solana.PublicKey{}, false, fail(ErrInvalidTradeStateAddress, "%s is held by %s", addr, acc.Owner)
		}
		return addr, false, nil
	}
	if err := system.CreateAccount(l, payer, addr, TradeStateSize, ProgramID); err != nil {
		return solana.PublicKey{}, false, err
	}
	acc, err = l.GetAccount(addr)
	if err != nil {
		return solana.PublicKey{}, false, err
	}
	acc.Data[0] = bump
	if err := l.PutAccount(addr, acc); err != nil {
		return solana.PublicKey{}, false, err
	}
	return addr, true, nil
}

// ValidateTradeState checks that addr holds an intent matching key. The
// bump recorded in the account must reproduce addr.
func ValidateTradeState(l state.Ledger, addr solana.PublicKey, key TradeStateKey) error {
	acc, err := l.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) || len(acc.Data) != TradeStateSize {
		return fail(ErrInvalidTradeStateAddress, "no trade state at %s", addr)
	}
	derived, err := key.Address(acc.Data[0])
	if err != nil || !derived.Equals(addr) {
		return fail(ErrInvalidTradeStateAddress, "%s does not match its parameters", addr)
	}
	return nil
}

// validateEitherScheme accepts addr under the private scheme of key or, when
// that fails, under the public one.
func validateEitherScheme(l state.Ledger, addr solana.PublicKey, key TradeStateKey) error {
	err := ValidateTradeState(l, addr, key)
	if err == nil || key.Public() {
		return err
	}
	public := key
	public.TokenAccount = nil
	if perr := ValidateTradeState(l, addr, public); perr == nil {
		return nil
	}
	return err
}

// DestroyTradeState moves every lamport held by the intent at addr to
// recipient and frees the address.
func DestroyTradeState(l state.Ledger, addr, recipient solana.PublicKey) error {
	acc, err := l.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	if err := system.Debit(l, ProgramID, addr, recipient, acc.Lamports); err != nil {
		return err
	}
	return l.DeleteAccount(addr)
}

// TradeStateActive reports whether an intent is materialized at addr.
func TradeStateActive(l state.Ledger, addr solana.PublicKey) (bool, error) {
	acc, err := l.GetAccount(addr)
	if err != nil {
		return false, err
	}
	return acc != nil && acc.IsOwnedBy(ProgramID) && len(acc.Data) == TradeStateSize, nil
}
