package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

// CancelParams names the intent at TradeState by the price and size it was
// created with.
type CancelParams struct {
	AuctionHouse solana.PublicKey
	Wallet       solana.PublicKey
	TokenAccount solana.PublicKey
	TokenMint    solana.PublicKey
	TradeState   solana.PublicKey
	Price        uint64
	Size         uint64
}

// Cancel retracts a bid or listing. The escrow is left untouched; only the
// intent is removed and its rent returned to the fee payer. Cancelling a
// listing also revokes the program-as-signer delegate.
func (e *Engine) Cancel(l state.Ledger, call Call, p CancelParams) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, false)
	if err != nil {
		return nil, err
	}
	walletSigned := call.Signed(p.Wallet)
	if !walletSigned && !call.Signed(inst.ah.Authority) {
		return nil, fail(ErrNoValidSignerPresent, "cancel needs the wallet or authority signature")
	}
	holding, err := e.holding(l, p.TokenAccount)
	if err != nil {
		return nil, err
	}
	if !holding.Mint.Equals(p.TokenMint) {
		return nil, fail(ErrPublicKeyMismatch, "holding account %s holds %s", p.TokenAccount, holding.Mint)
	}
	tokenAccount := p.TokenAccount
	key := TradeStateKey{
		Wallet:       p.Wallet,
		AuctionHouse: inst.key,
		TokenAccount: &tokenAccount,
		TreasuryMint: inst.ah.TreasuryMint,
		TokenMint:    p.TokenMint,
		Price:        p.Price,
		Size:         p.Size,
	}
	if err := validateEitherScheme(l, p.TradeState, key); err != nil {
		return nil, err
	}
	payer, err := feePayer(inst, call, p.Wallet)
	if err != nil {
		return nil, err
	}
	if walletSigned && holding.Owner.Equals(p.Wallet) && holding.HasDelegate() {
		signer, _, err := FindProgramAsSignerAddress()
		if err != nil {
			return nil, err
		}
		if holding.Delegate.Equals(signer) {
			if err := e.assets.Revoke(l, p.TokenAccount, p.Wallet); err != nil {
				return nil, err
			}
		}
	}
	if err := DestroyTradeState(l, p.TradeState, payer); err != nil {
		return nil, err
	}
	l.AppendEvent(newTradeStateEvent(EventTypeCancel, inst.key, p.Wallet, p.TradeState, p.TokenMint, p.Price, p.Size))
	return &Result{AuctionHouse: inst.key, TradeState: p.TradeState, Payer: payer, Price: p.Price}, nil
}
