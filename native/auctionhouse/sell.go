package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

// SellParams lists Size units held in TokenAccount at Price. On the
// delegated path Price is ignored and the listing is recorded at
// AuctioneerPrice.
type SellParams struct {
	AuctionHouse        solana.PublicKey
	Wallet              solana.PublicKey
	TokenAccount        solana.PublicKey
	Metadata            solana.PublicKey
	Price               uint64
	Size                uint64
	TradeStateBump      uint8
	FreeTradeStateBump  uint8
	ProgramAsSignerBump uint8
}

// Sell creates the seller trade state and approves the program-as-signer
// delegate for Size so the asset can move at execution.
//
// A listing normally needs the wallet's signature. When the instance allows
// price changes, its authority may instead re-list at a non-zero price an
// asset the wallet already listed for free.
func (e *Engine) Sell(l state.Ledger, call Call, p SellParams) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, false)
	if err != nil {
		return nil, err
	}
	holding, err := e.holding(l, p.TokenAccount)
	if err != nil {
		return nil, err
	}
	tokenAccount := p.TokenAccount
	key := TradeStateKey{
		Wallet:       p.Wallet,
		AuctionHouse: inst.key,
		TokenAccount: &tokenAccount,
		TreasuryMint: inst.ah.TreasuryMint,
		TokenMint:    holding.Mint,
		Price:        p.Price,
		Size:         p.Size,
	}
	delegated := inst.auth.Kind == AuthorityDelegated
	if delegated {
		key.Price = AuctioneerPrice
	}

	freeKey := key.WithPrice(0)
	freeAddr, err := checkBump(p.FreeTradeStateBump, freeKey.Find)
	if err != nil {
		return nil, err
	}
	signer, err := checkBump(p.ProgramAsSignerBump, FindProgramAsSignerAddress)
	if err != nil {
		return nil, err
	}

	walletSigned := call.Signed(p.Wallet)
	switch {
	case delegated:
		if !walletSigned {
			return nil, fail(ErrSaleRequiresSigner, "wallet %s did not sign", p.Wallet)
		}
		active, err := TradeStateActive(l, freeAddr)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, fail(ErrTradeStateIsNotEmpty, "free listing %s is active", freeAddr)
		}
	case !walletSigned:
		if p.Price == 0 || !inst.ah.CanChangeSalePrice || !call.Signed(inst.ah.Authority) {
			return nil, fail(ErrSaleRequiresSigner, "wallet %s did not sign", p.Wallet)
		}
		if err := ValidateTradeState(l, freeAddr, freeKey); err != nil {
			return nil, fail(ErrSaleRequiresSigner, "no free listing to re-price: %v", err)
		}
	}

	if !holding.Owner.Equals(p.Wallet) {
		return nil, fail(ErrIncorrectOwner, "holding account %s belongs to %s", p.TokenAccount, holding.Owner)
	}
	if p.Size == 0 || holding.Amount < p.Size {
		return nil, fail(ErrInvalidTokenAmount, "holding account %s holds %d, size %d", p.TokenAccount, holding.Amount, p.Size)
	}
	if err := e.checkMetadata(l, p.Metadata, holding.Mint); err != nil {
		return nil, err
	}
	payer, err := feePayer(inst, call, p.Wallet)
	if err != nil {
		return nil, err
	}
	if walletSigned {
		if err := e.assets.Approve(l, p.TokenAccount, signer, p.Wallet, p.Size); err != nil {
			return nil, err
		}
	}
	addr, created, err := CreateTradeState(l, payer, key, p.TradeStateBump)
	if err != nil {
		return nil, err
	}
	if created {
		l.AppendEvent(newTradeStateEvent(EventTypeListing, inst.key, p.Wallet, addr, holding.Mint, key.Price, p.Size))
	}
	return &Result{
		AuctionHouse: inst.key,
		TradeState:   addr,
		Payer:        payer,
		Bump:         p.TradeStateBump,
		Created:      created,
		Price:        key.Price,
	}, nil
}
