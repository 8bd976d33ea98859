package auctionhouse

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
	"auctionhouse/native/fees"
)

const (
	EventTypeCreated           = "auctionhouse.created"
	EventTypeDelegated         = "auctionhouse.auctioneer.delegated"
	EventTypeAuctioneerUpdated = "auctionhouse.auctioneer.updated"
	EventTypeAuctioneerRevoked = "auctionhouse.auctioneer.revoked"
	EventTypeDeposit           = "auctionhouse.escrow.deposit"
	EventTypeWithdraw          = "auctionhouse.escrow.withdraw"
	EventTypeFeeWithdrawn      = "auctionhouse.fee.withdrawn"
	EventTypeTreasuryWithdrawn = "auctionhouse.treasury.withdrawn"
	EventTypeListing           = "auctionhouse.listing.created"
	EventTypeBid               = "auctionhouse.bid.created"
	EventTypeCancel            = "auctionhouse.trade_state.cancelled"
	EventTypeSale              = "auctionhouse.sale.executed"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func newInstanceEvent(typ string, key solana.PublicKey, ah *AuctionHouse) *types.Event {
	return &types.Event{Type: typ, Attributes: map[string]string{
		"auctionHouse":         key.String(),
		"authority":            ah.Authority.String(),
		"treasuryMint":         ah.TreasuryMint.String(),
		"sellerFeeBasisPoints": strconv.Itoa(int(ah.SellerFeeBasisPoints)),
	}}
}

func newDelegationEvent(typ string, key, authority, record solana.PublicKey) *types.Event {
	attrs := map[string]string{
		"auctionHouse": key.String(),
		"record":       record.String(),
	}
	if !authority.IsZero() {
		attrs["auctioneerAuthority"] = authority.String()
	}
	return &types.Event{Type: typ, Attributes: attrs}
}

func newEscrowEvent(typ string, key, wallet, escrow solana.PublicKey, amount uint64) *types.Event {
	return &types.Event{Type: typ, Attributes: map[string]string{
		"auctionHouse": key.String(),
		"wallet":       wallet.String(),
		"escrow":       escrow.String(),
		"amount":       u64(amount),
	}}
}

func newOperatorEvent(typ string, key, destination solana.PublicKey, amount uint64) *types.Event {
	return &types.Event{Type: typ, Attributes: map[string]string{
		"auctionHouse": key.String(),
		"destination":  destination.String(),
		"amount":       u64(amount),
	}}
}

func newTradeStateEvent(typ string, key, wallet, tradeState, mint solana.PublicKey, price, size uint64) *types.Event {
	return &types.Event{Type: typ, Attributes: map[string]string{
		"auctionHouse": key.String(),
		"wallet":       wallet.String(),
		"tradeState":   tradeState.String(),
		"mint":         mint.String(),
		"price":        u64(price),
		"size":         u64(size),
	}}
}

func newSaleEvent(key, treasuryMint solana.PublicKey, p ExecuteSaleParams, split fees.Split) *types.Event {
	return &types.Event{Type: EventTypeSale, Attributes: map[string]string{
		"auctionHouse": key.String(),
		"treasuryMint": treasuryMint.String(),
		"buyer":        p.Buyer.String(),
		"seller":       p.Seller.String(),
		"mint":         p.TokenMint.String(),
		"size":         u64(p.Size),
		"price":        u64(split.Gross),
		"fee":          u64(split.Fee),
		"net":          u64(split.Net),
	}}
}
