package auctionhouse

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/token"
)

func newCustomHarness(t *testing.T, bps uint16) (*harness, solana.PublicKey) {
	t.Helper()
	mint := solana.NewWallet().PublicKey()
	h := newHarness(t, houseOptions{bps: bps, treasuryMint: &mint})
	pay := h.mustATA(h.buyer, mint)
	if err := h.assets.MintTo(h.l, mint, pay, h.minter, 1_000); err != nil {
		t.Fatalf("fund buyer: %v", err)
	}
	return h, pay
}

func (h *harness) customDeposit(pay solana.PublicKey, amount uint64) DepositParams {
	p := h.depositParams(h.buyer, amount)
	p.PaymentAccount = pay
	return p
}

func TestCustomEscrowIsHoldingAccount(t *testing.T) {
	h, pay := newCustomHarness(t, 0)
	res, err := h.deposit(signed(h.buyer), h.customDeposit(pay, 40))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	escrow, err := h.assets.Account(h.l, res.Escrow)
	if err != nil {
		t.Fatalf("escrow holding: %v", err)
	}
	if !escrow.Owner.Equals(h.ahKey) || !escrow.Mint.Equals(h.treasuryMint) || escrow.Amount != 40 {
		t.Fatalf("unexpected escrow %+v", escrow)
	}
	if got := h.tokens(pay); got != 960 {
		t.Fatalf("payment account holds %d", got)
	}

	p := h.customDeposit(pay, 10)
	p.TransferAuthority = h.seller
	if _, err := h.deposit(signed(h.buyer), p); !errors.Is(err, ErrNoValidSignerPresent) {
		t.Fatalf("expected transfer authority check, got %v", err)
	}
}

func TestCustomEscrowShortfallAndWithdraw(t *testing.T) {
	h, pay := newCustomHarness(t, 0)
	if _, err := h.deposit(signed(h.buyer), h.customDeposit(pay, 40)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	bp := h.buyParams(100, false)
	bp.PaymentAccount = pay
	bid, err := h.buy(signed(h.buyer), bp)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if bid.Funded != 60 {
		t.Fatalf("expected shortfall of 60, moved %d", bid.Funded)
	}
	escrow, _ := h.escrow(h.buyer)
	if got := h.tokens(escrow); got != 100 {
		t.Fatalf("escrow holds %d", got)
	}

	wp := h.withdrawParams(h.buyer, 101)
	wp.ReceiptAccount = pay
	if _, err := h.withdraw(signed(h.buyer), wp); !errors.Is(err, ErrNotEnoughBalance) {
		t.Fatalf("expected not enough balance, got %v", err)
	}
	wp.Amount = 100
	if _, err := h.withdraw(signed(h.buyer), wp); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := h.tokens(pay); got != 1_000 {
		t.Fatalf("payment account holds %d after withdraw", got)
	}

	stranger := h.mustATA(h.seller, h.treasuryMint)
	wp.ReceiptAccount = stranger
	wp.Amount = 0
	if _, err := h.withdraw(signed(h.authority), wp); !errors.Is(err, ErrPublicKeyMismatch) {
		t.Fatalf("expected receipt check without the wallet signature, got %v", err)
	}
}

func TestCustomExecuteSalePaysTreasuryInKind(t *testing.T) {
	h, pay := newCustomHarness(t, 250)
	if _, err := h.sell(signed(h.seller), h.sellParams(100)); err != nil {
		t.Fatalf("sell: %v", err)
	}
	bp := h.buyParams(100, false)
	bp.PaymentAccount = pay
	if _, err := h.buy(signed(h.buyer), bp); err != nil {
		t.Fatalf("buy: %v", err)
	}
	p := h.executeParams(100, 100, false)
	res, err := h.executeSale(signed(h.buyer), p)
	if err != nil {
		t.Fatalf("execute sale: %v", err)
	}
	if res.Fee != 2 || res.Net != 98 {
		t.Fatalf("unexpected split %+v", res)
	}
	ah := h.house()
	if got := h.tokens(ah.Treasury); got != 2 {
		t.Fatalf("treasury holds %d", got)
	}
	if got := h.tokens(p.SellerPaymentReceipt); got != 98 {
		t.Fatalf("seller receipt holds %d", got)
	}
	escrow, _ := h.escrow(h.buyer)
	if got := h.tokens(escrow); got != 0 {
		t.Fatalf("escrow holds %d after sale", got)
	}
	buyerATA, _, _ := token.FindAssociatedAddress(h.buyer, h.nft)
	if got := h.tokens(buyerATA); got != 1 {
		t.Fatalf("buyer holds %d units", got)
	}

	_, err = h.exec(signed(h.authority), func(l state.Ledger, c Call) (*Result, error) {
		return h.eng.WithdrawFromTreasury(l, c, OperatorWithdrawParams{AuctionHouse: h.ahKey, Amount: 3})
	})
	if !errors.Is(err, ErrNotEnoughBalance) {
		t.Fatalf("expected not enough balance, got %v", err)
	}
	_, err = h.exec(signed(h.authority), func(l state.Ledger, c Call) (*Result, error) {
		return h.eng.WithdrawFromTreasury(l, c, OperatorWithdrawParams{AuctionHouse: h.ahKey, Amount: 2})
	})
	if err != nil {
		t.Fatalf("treasury withdraw: %v", err)
	}
	if got := h.tokens(ah.TreasuryWithdrawalDestination); got != 2 {
		t.Fatalf("treasury destination holds %d", got)
	}
}

func TestCreateRejectsForeignTreasuryDestination(t *testing.T) {
	h, _ := newCustomHarness(t, 0)
	other := solana.NewWallet().PublicKey()
	if err := h.assets.InitializeMint(h.l, h.minter, other, h.minter, 0); err != nil {
		t.Fatalf("mint: %v", err)
	}
	wrong := h.mustATA(h.authority, other)
	_, err := h.exec(signed(h.seller), func(l state.Ledger, c Call) (*Result, error) {
		return h.eng.CreateAuctionHouse(l, c, CreateAuctionHouseParams{
			Payer:                         h.seller,
			Authority:                     h.seller,
			TreasuryMint:                  h.treasuryMint,
			FeeWithdrawalDestination:      h.seller,
			TreasuryWithdrawalDestination: wrong,
		})
	})
	if !errors.Is(err, ErrPublicKeyMismatch) {
		t.Fatalf("expected public key mismatch, got %v", err)
	}
}
