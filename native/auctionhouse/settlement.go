package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/fees"
)

var settlementPrefix = []byte("auctionhouse/settled/")

func settlementKey(instance solana.PublicKey) []byte {
	return append(append([]byte{}, settlementPrefix...), instance[:]...)
}

// SettlementTotals returns the sales an instance has settled, in units of its
// treasury mint. An instance that never settled reports zero totals.
func SettlementTotals(l state.Ledger, instance solana.PublicKey) (fees.Totals, error) {
	var totals fees.Totals
	if _, err := l.KVGet(settlementKey(instance), &totals); err != nil {
		return fees.Totals{}, fmt.Errorf("settlement totals of %s: %w", instance, err)
	}
	if totals.Gross == nil {
		totals = fees.NewTotals()
	}
	return totals, nil
}

func recordSettlement(l state.Ledger, instance solana.PublicKey, split fees.Split) error {
	totals, err := SettlementTotals(l, instance)
	if err != nil {
		return err
	}
	totals.Add(split)
	return l.KVPut(settlementKey(instance), totals)
}
