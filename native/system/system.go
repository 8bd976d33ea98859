// Package system moves native lamports between accounts and allocates account
// storage at the rent-exempt floor.
package system

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/events"
	"auctionhouse/core/state"
	"auctionhouse/core/types"
	nativecommon "auctionhouse/native/common"
)

// ProgramID owns every plain wallet and data-less holding address.
var ProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

var (
	ErrInsufficientFunds = errors.New("system: insufficient lamports")
	ErrAccountInUse      = errors.New("system: account already in use")
	ErrNotOwned          = errors.New("system: account not owned by program")
	ErrCarriesData       = errors.New("system: source account carries data")
)

func load(l state.Ledger, key solana.PublicKey) (*types.Account, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{Owner: ProgramID}
	}
	return acc, nil
}

// Balance returns the lamports held at key.
func Balance(l state.Ledger, key solana.PublicKey) (uint64, error) {
	acc, err := l.GetAccount(key)
	if err != nil || acc == nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Transfer moves lamports out of a system-owned, data-less account. The
// caller is responsible for having verified the source signature.
func Transfer(l state.Ledger, from, to solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	src, err := load(l, from)
	if err != nil {
		return err
	}
	if !src.IsOwnedBy(ProgramID) {
		return fmt.Errorf("%w: %s", ErrNotOwned, from)
	}
	if len(src.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrCarriesData, from)
	}
	return move(l, src, from, to, lamports)
}

// Debit moves lamports out of an account owned by program. Only the owning
// program may debit its accounts, which is what the owner check asserts.
func Debit(l state.Ledger, program, from, to solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	src, err := load(l, from)
	if err != nil {
		return err
	}
	if !src.IsOwnedBy(program) {
		return fmt.Errorf("%w: %s", ErrNotOwned, from)
	}
	return move(l, src, from, to, lamports)
}

func move(l state.Ledger, src *types.Account, from, to solana.PublicKey, lamports uint64) error {
	if from.Equals(to) {
		return nil
	}
	remaining, err := nativecommon.CheckedSub(src.Lamports, lamports)
	if err != nil {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, src.Lamports, lamports)
	}
	dst, err := load(l, to)
	if err != nil {
		return err
	}
	credited, err := nativecommon.CheckedAdd(dst.Lamports, lamports)
	if err != nil {
		return fmt.Errorf("system: credit %s: %w", to, err)
	}
	src.Lamports = remaining
	dst.Lamports = credited
	if err := l.PutAccount(from, src); err != nil {
		return err
	}
	if err := l.PutAccount(to, dst); err != nil {
		return err
	}
	l.AppendEvent(events.Transfer{From: from, To: to, Amount: lamports}.Event())
	return nil
}

// CreateAccount allocates space bytes at addr owned by owner, topping the
// address up to the rent-exempt floor from payer. Lamports already sitting at
// addr count towards the floor.
func CreateAccount(l state.Ledger, payer, addr solana.PublicKey, space int, owner solana.PublicKey) error {
	acc, err := load(l, addr)
	if err != nil {
		return err
	}
	if len(acc.Data) > 0 || !acc.IsOwnedBy(ProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, addr)
	}
	if err := EnsureRentExempt(l, payer, addr, space); err != nil {
		return err
	}
	acc, err = load(l, addr)
	if err != nil {
		return err
	}
	acc.Owner = owner
	acc.Data = make([]byte, space)
	return l.PutAccount(addr, acc)
}

// EnsureRentExempt tops addr up to the floor for dataLen bytes, paid by payer.
func EnsureRentExempt(l state.Ledger, payer, addr solana.PublicKey, dataLen int) error {
	current, err := Balance(l, addr)
	if err != nil {
		return err
	}
	rent := l.Rent()
	if rent.IsExempt(current, dataLen) {
		return nil
	}
	return Transfer(l, payer, addr, rent.MinimumBalance(dataLen)-current)
}

// Airdrop credits lamports out of thin air. It backs genesis allocation and
// test fixtures; no operation of a running marketplace calls it.
func Airdrop(l state.Ledger, to solana.PublicKey, lamports uint64) error {
	dst, err := load(l, to)
	if err != nil {
		return err
	}
	credited, err := nativecommon.CheckedAdd(dst.Lamports, lamports)
	if err != nil {
		return fmt.Errorf("system: airdrop %s: %w", to, err)
	}
	dst.Lamports = credited
	return l.PutAccount(to, dst)
}
