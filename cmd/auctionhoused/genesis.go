package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/config"
	"auctionhouse/core/state"
	"auctionhouse/native/system"
)

// applyGenesis credits the configured allocations once, on a ledger that has
// never been committed. It reports whether anything was written.
func applyGenesis(mgr *state.Manager, allocations []config.Allocation) (bool, error) {
	if mgr.Seq() != 0 || len(allocations) == 0 {
		return false, nil
	}
	err := mgr.Atomic(func(l state.Ledger) error {
		for _, alloc := range allocations {
			addr, err := solana.PublicKeyFromBase58(alloc.Address)
			if err != nil {
				return fmt.Errorf("genesis address %q: %w", alloc.Address, err)
			}
			if err := system.Airdrop(l, addr, alloc.Lamports); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if _, err := mgr.Commit(); err != nil {
		return false, fmt.Errorf("commit genesis: %w", err)
	}
	return true, nil
}
