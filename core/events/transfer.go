package events

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
)

const (
	// TypeTransfer is emitted for native lamport movements.
	TypeTransfer = "transfer.native"
	// TypeTokenTransfer is emitted for holding-account balance movements.
	TypeTokenTransfer = "transfer.token"
)

type Transfer struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Amount uint64
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"from":   e.From.String(),
		"to":     e.To.String(),
		"amount": strconv.FormatUint(e.Amount, 10),
	}}
}

type TokenTransfer struct {
	Mint      solana.PublicKey
	From      solana.PublicKey
	To        solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"mint":      e.Mint.String(),
		"from":      e.From.String(),
		"to":        e.To.String(),
		"authority": e.Authority.String(),
		"amount":    strconv.FormatUint(e.Amount, 10),
	}}
}
