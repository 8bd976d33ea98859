package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/fees"
	"auctionhouse/native/system"
)

// ExecuteSaleParams matches the buyer's intent against the seller's. Price
// is the agreed price; the engine never infers it from the trade states.
type ExecuteSaleParams struct {
	AuctionHouse             solana.PublicKey
	Buyer                    solana.PublicKey
	Seller                   solana.PublicKey
	TokenAccount             solana.PublicKey
	TokenMint                solana.PublicKey
	Metadata                 solana.PublicKey
	SellerPaymentReceipt     solana.PublicKey
	BuyerReceiptTokenAccount solana.PublicKey
	BuyerTradeState          solana.PublicKey
	SellerTradeState         solana.PublicKey
	EscrowBump               uint8
	FreeTradeStateBump       uint8
	ProgramAsSignerBump      uint8
	Price                    uint64
	Size                     uint64
	// CloseTokenAccount closes the seller's holding account when the sale
	// empties it. The seller must sign.
	CloseTokenAccount bool
}

// ExecuteSale settles a matched pair: price leaves the buyer's escrow, the
// marketplace fee goes to the treasury and the rest to the seller, the asset
// moves to the buyer's associated holding account and both intents are
// destroyed. Any failure aborts the whole unit.
func (e *Engine) ExecuteSale(l state.Ledger, call Call, p ExecuteSaleParams) (*Result, error) {
	inst, err := e.open(l, p.AuctionHouse, call, false)
	if err != nil {
		return nil, err
	}
	delegated := inst.auth.Kind == AuthorityDelegated

	// Both intents must exist before anything else is looked at.
	for _, ts := range []solana.PublicKey{p.BuyerTradeState, p.SellerTradeState} {
		active, err := TradeStateActive(l, ts)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, fail(ErrBothPartiesNeedToAgreeToSale, "no trade state at %s", ts)
		}
	}
	if p.Price == 0 && !call.Signed(inst.ah.Authority) && !call.Signed(p.Seller) {
		return nil, ErrCannotMatchFreeSales
	}

	holding, err := e.holding(l, p.TokenAccount)
	if err != nil {
		return nil, err
	}
	if !holding.Mint.Equals(p.TokenMint) {
		return nil, fail(ErrPublicKeyMismatch, "holding account %s holds %s", p.TokenAccount, holding.Mint)
	}
	if !holding.Owner.Equals(p.Seller) {
		return nil, fail(ErrIncorrectOwner, "holding account %s belongs to %s", p.TokenAccount, holding.Owner)
	}
	if p.Size == 0 || holding.Amount < p.Size {
		return nil, fail(ErrInvalidTokenAmount, "holding account %s holds %d, size %d", p.TokenAccount, holding.Amount, p.Size)
	}

	// 1. Authenticate both intents against the claimed parameters.
	tokenAccount := p.TokenAccount
	buyerKey := TradeStateKey{
		Wallet:       p.Buyer,
		AuctionHouse: inst.key,
		TokenAccount: &tokenAccount,
		TreasuryMint: inst.ah.TreasuryMint,
		TokenMint:    p.TokenMint,
		Price:        p.Price,
		Size:         p.Size,
	}
	if err := validateEitherScheme(l, p.BuyerTradeState, buyerKey); err != nil {
		return nil, err
	}
	sellerKey := buyerKey
	sellerKey.Wallet = p.Seller
	if delegated {
		sellerKey.Price = AuctioneerPrice
		freeAddr, err := checkBump(p.FreeTradeStateBump, sellerKey.WithPrice(0).Find)
		if err != nil {
			return nil, err
		}
		if active, err := TradeStateActive(l, freeAddr); err != nil {
			return nil, err
		} else if active {
			return nil, fail(ErrTradeStateIsNotEmpty, "free listing %s is active", freeAddr)
		}
	}
	if err := ValidateTradeState(l, p.SellerTradeState, sellerKey); err != nil {
		return nil, err
	}
	if err := e.checkMetadata(l, p.Metadata, p.TokenMint); err != nil {
		return nil, err
	}
	signer, err := checkBump(p.ProgramAsSignerBump, FindProgramAsSignerAddress)
	if err != nil {
		return nil, err
	}
	if !holding.HasDelegate() || !holding.Delegate.Equals(signer) || holding.DelegatedAmount < p.Size {
		return nil, fail(ErrIncorrectOwner, "holding account %s is not delegated for sale", p.TokenAccount)
	}
	escrow, err := checkBump(p.EscrowBump, func() (solana.PublicKey, uint8, error) {
		return FindEscrowAddress(inst.key, p.Buyer)
	})
	if err != nil {
		return nil, err
	}
	payer, err := feePayer(inst, call, p.Buyer, p.Seller)
	if err != nil {
		return nil, err
	}

	// 2. Fee and proceeds.
	split, err := fees.Apply(p.Price, inst.ah.SellerFeeBasisPoints)
	if err != nil {
		return nil, fail(ErrNumericalOverflow, "fee on %d: %v", p.Price, err)
	}

	// 3. Funds out of escrow.
	balance, floor, err := e.escrowBalance(l, inst, escrow)
	if err != nil {
		return nil, err
	}
	if balance < floor || balance-floor < p.Price {
		return nil, fail(ErrNotEnoughBalance, "escrow %s holds %d, price %d", escrow, balance, p.Price)
	}
	if err := e.payOut(l, inst, call, payer, escrow, p, split); err != nil {
		return nil, err
	}

	// 4. Asset to the buyer.
	receipt, err := e.buyerReceipt(l, payer, p)
	if err != nil {
		return nil, err
	}
	if err := e.assets.Transfer(l, p.TokenAccount, receipt, signer, p.Size); err != nil {
		return nil, err
	}
	if p.CloseTokenAccount {
		if !call.Signed(p.Seller) {
			return nil, fail(ErrSaleRequiresSigner, "closing %s needs the seller signature", p.TokenAccount)
		}
		emptied, err := e.assets.Account(l, p.TokenAccount)
		if err != nil {
			return nil, err
		}
		if emptied.Amount == 0 {
			if err := e.assets.CloseAccount(l, p.TokenAccount, p.Seller, p.Seller); err != nil {
				return nil, err
			}
		}
	}

	// 5. Both intents are consumed.
	if err := DestroyTradeState(l, p.BuyerTradeState, payer); err != nil {
		return nil, err
	}
	if err := DestroyTradeState(l, p.SellerTradeState, payer); err != nil {
		return nil, err
	}
	if err := recordSettlement(l, inst.key, split); err != nil {
		return nil, err
	}
	l.AppendEvent(newSaleEvent(inst.key, inst.ah.TreasuryMint, p, split))
	return &Result{
		AuctionHouse: inst.key,
		Escrow:       escrow,
		TradeState:   p.SellerTradeState,
		Payer:        payer,
		Price:        split.Gross,
		Fee:          split.Fee,
		Net:          split.Net,
	}, nil
}

// payOut moves the fee to the treasury and the proceeds to the seller.
func (e *Engine) payOut(l state.Ledger, inst *instance, call Call, payer, escrow solana.PublicKey, p ExecuteSaleParams, split fees.Split) error {
	if inst.isNative() {
		if !p.SellerPaymentReceipt.Equals(p.Seller) {
			return fail(ErrPublicKeyMismatch, "seller receipt %s is not the seller", p.SellerPaymentReceipt)
		}
		if err := system.Transfer(l, escrow, inst.ah.Treasury, split.Fee); err != nil {
			return err
		}
		return system.Transfer(l, escrow, p.Seller, split.Net)
	}
	receipt, err := e.receiptAccount(l, inst, payer, p.Seller, p.SellerPaymentReceipt, call.Signed(p.Seller))
	if err != nil {
		return err
	}
	if split.Fee > 0 {
		if err := e.assets.Transfer(l, escrow, inst.ah.Treasury, inst.key, split.Fee); err != nil {
			return err
		}
	}
	if split.Net > 0 {
		return e.assets.Transfer(l, escrow, receipt, inst.key, split.Net)
	}
	return nil
}

// buyerReceipt returns the buyer's associated holding account for the asset,
// creating it when absent. An existing account must belong to the buyer and
// carry no delegate.
func (e *Engine) buyerReceipt(l state.Ledger, payer solana.PublicKey, p ExecuteSaleParams) (solana.PublicKey, error) {
	ata, _, err := findAssociated(p.Buyer, p.TokenMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !p.BuyerReceiptTokenAccount.Equals(ata) {
		return solana.PublicKey{}, fail(ErrPublicKeyMismatch, "buyer receipt %s is not the associated account", p.BuyerReceiptTokenAccount)
	}
	exists, err := e.assets.Exists(l, ata)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if exists {
		holding, err := e.holding(l, ata)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if !holding.Owner.Equals(p.Buyer) {
			return solana.PublicKey{}, fail(ErrIncorrectOwner, "buyer receipt %s belongs to %s", ata, holding.Owner)
		}
		if holding.HasDelegate() {
			return solana.PublicKey{}, ErrBuyerATACannotHaveDelegate
		}
		return ata, nil
	}
	return e.assets.CreateAssociatedAccount(l, payer, p.Buyer, p.TokenMint)
}
