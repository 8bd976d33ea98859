package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

// BuyParams places a bid of Price for Size units of the asset held in
// TokenAccount. The escrow is topped up from PaymentAccount by whatever the
// bid is not yet covered for.
type BuyParams struct {
	AuctionHouse      solana.PublicKey
	Wallet            solana.PublicKey
	PaymentAccount    solana.PublicKey
	TransferAuthority solana.PublicKey
	TokenAccount      solana.PublicKey
	Metadata          solana.PublicKey
	Price             uint64
	Size              uint64
	TradeStateBump    uint8
	EscrowBump        uint8
}

// Buy places a private bid bound to TokenAccount.
func (e *Engine) Buy(l state.Ledger, call Call, p BuyParams) (*Result, error) {
	return e.bid(l, call, p, false)
}

// PublicBuy places a bid matchable against any holding account of the mint.
func (e *Engine) PublicBuy(l state.Ledger, call Call, p BuyParams) (*Result, error) {
	return e.bid(l, call, p, true)
}

func (e *Engine) bid(l state.Ledger, call Call, p BuyParams, public bool) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, false)
	if err != nil {
		return nil, err
	}
	if !call.Signed(p.Wallet) {
		return nil, fail(ErrNoValidSignerPresent, "wallet %s did not sign", p.Wallet)
	}
	holding, err := e.holding(l, p.TokenAccount)
	if err != nil {
		return nil, err
	}
	key := TradeStateKey{
		Wallet:       p.Wallet,
		AuctionHouse: inst.key,
		TreasuryMint: inst.ah.TreasuryMint,
		TokenMint:    holding.Mint,
		Price:        p.Price,
		Size:         p.Size,
	}
	if !public {
		tokenAccount := p.TokenAccount
		key.TokenAccount = &tokenAccount
	}
	if _, canonical, err := key.Find(); err != nil {
		return nil, err
	} else if canonical != p.TradeStateBump {
		return nil, fail(ErrInvalidTradeStateAddress, "bump %d, canonical %d", p.TradeStateBump, canonical)
	}
	payer, err := feePayer(inst, call, p.Wallet)
	if err != nil {
		return nil, err
	}
	escrow, err := e.ensureEscrow(l, inst, p.Wallet, payer, p.EscrowBump)
	if err != nil {
		return nil, err
	}
	funded, err := e.topUp(l, inst, call, p.Wallet, p.PaymentAccount, p.TransferAuthority, escrow, p.Price)
	if err != nil {
		return nil, err
	}
	if err := e.checkMetadata(l, p.Metadata, holding.Mint); err != nil {
		return nil, err
	}
	addr, created, err := CreateTradeState(l, payer, key, p.TradeStateBump)
	if err != nil {
		return nil, err
	}
	if created {
		l.AppendEvent(newTradeStateEvent(EventTypeBid, inst.key, p.Wallet, addr, holding.Mint, p.Price, p.Size))
	}
	return &Result{
		AuctionHouse: inst.key,
		Escrow:       escrow,
		TradeState:   addr,
		Payer:        payer,
		Bump:         p.TradeStateBump,
		Created:      created,
		Funded:       funded,
		Price:        p.Price,
	}, nil
}
