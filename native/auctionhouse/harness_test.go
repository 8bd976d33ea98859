package auctionhouse

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/system"
	"auctionhouse/native/token"
	"auctionhouse/storage"
	"auctionhouse/storage/trie"
)

const oneSOL = 1_000_000_000

type harness struct {
	t      *testing.T
	l      *state.Manager
	eng    *Engine
	assets *token.Program

	authority solana.PublicKey
	seller    solana.PublicKey
	buyer     solana.PublicKey
	minter    solana.PublicKey

	treasuryMint solana.PublicKey
	ahKey        solana.PublicKey

	nft       solana.PublicKey
	metadata  solana.PublicKey
	sellerATA solana.PublicKey
}

type houseOptions struct {
	bps          uint16
	canChange    bool
	treasuryMint *solana.PublicKey
}

func newHarness(t *testing.T, opts houseOptions) *harness {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("new trie: %v", err)
	}
	assets := token.NewProgram()
	h := &harness{
		t:            t,
		l:            state.NewManager(tr),
		eng:          NewEngine(assets),
		assets:       assets,
		authority:    solana.NewWallet().PublicKey(),
		seller:       solana.NewWallet().PublicKey(),
		buyer:        solana.NewWallet().PublicKey(),
		minter:       solana.NewWallet().PublicKey(),
		treasuryMint: token.NativeMint,
	}
	for _, key := range []solana.PublicKey{h.authority, h.seller, h.buyer, h.minter} {
		if err := system.Airdrop(h.l, key, 100*oneSOL); err != nil {
			t.Fatalf("airdrop: %v", err)
		}
	}
	if opts.treasuryMint != nil {
		h.treasuryMint = *opts.treasuryMint
		if err := assets.InitializeMint(h.l, h.minter, h.treasuryMint, h.minter, 6); err != nil {
			t.Fatalf("treasury mint: %v", err)
		}
	}
	treasuryDest := h.authority
	if opts.treasuryMint != nil {
		treasuryDest = h.mustATA(h.authority, h.treasuryMint)
	}
	res, err := h.exec(signed(h.authority), func(l state.Ledger, call Call) (*Result, error) {
		return h.eng.CreateAuctionHouse(l, call, CreateAuctionHouseParams{
			Payer:                         h.authority,
			Authority:                     h.authority,
			TreasuryMint:                  h.treasuryMint,
			FeeWithdrawalDestination:      h.authority,
			TreasuryWithdrawalDestination: treasuryDest,
			SellerFeeBasisPoints:          opts.bps,
			CanChangeSalePrice:            opts.canChange,
		})
	})
	if err != nil {
		t.Fatalf("create auction house: %v", err)
	}
	h.ahKey = res.AuctionHouse

	h.nft = solana.NewWallet().PublicKey()
	if err := assets.InitializeMint(h.l, h.minter, h.nft, h.minter, 0); err != nil {
		t.Fatalf("nft mint: %v", err)
	}
	h.sellerATA = h.mustATA(h.seller, h.nft)
	if err := assets.MintTo(h.l, h.nft, h.sellerATA, h.minter, 1); err != nil {
		t.Fatalf("mint nft: %v", err)
	}
	h.metadata, err = assets.CreateMetadata(h.l, h.minter, h.nft, h.minter, "Lot", "LOT", "https://example.com/lot.json", 0)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	return h
}

func signed(keys ...solana.PublicKey) Call {
	return Call{Signers: keys}
}

func viaAuctioneer(auctioneer solana.PublicKey, keys ...solana.PublicKey) Call {
	a := auctioneer
	return Call{Signers: append(keys, auctioneer), Auctioneer: &a}
}

// exec runs op as one atomic unit.
func (h *harness) exec(call Call, op func(state.Ledger, Call) (*Result, error)) (*Result, error) {
	var res *Result
	err := h.l.Atomic(func(l state.Ledger) error {
		var err error
		res, err = op(l, call)
		return err
	})
	return res, err
}

func (h *harness) mustATA(owner, mint solana.PublicKey) solana.PublicKey {
	h.t.Helper()
	key, err := h.assets.CreateAssociatedAccount(h.l, h.minter, owner, mint)
	if err != nil {
		h.t.Fatalf("associated account: %v", err)
	}
	return key
}

func (h *harness) house() *AuctionHouse {
	h.t.Helper()
	ah, err := LoadAuctionHouse(h.l, h.ahKey)
	if err != nil {
		h.t.Fatalf("load auction house: %v", err)
	}
	return ah
}

func (h *harness) lamports(key solana.PublicKey) uint64 {
	h.t.Helper()
	v, err := system.Balance(h.l, key)
	if err != nil {
		h.t.Fatalf("balance: %v", err)
	}
	return v
}

func (h *harness) tokens(key solana.PublicKey) uint64 {
	h.t.Helper()
	acc, err := h.assets.Account(h.l, key)
	if err != nil {
		h.t.Fatalf("holding %s: %v", key, err)
	}
	return acc.Amount
}

func (h *harness) escrow(wallet solana.PublicKey) (solana.PublicKey, uint8) {
	h.t.Helper()
	addr, bump, err := FindEscrowAddress(h.ahKey, wallet)
	if err != nil {
		h.t.Fatalf("escrow address: %v", err)
	}
	return addr, bump
}

func (h *harness) rentFloor() uint64 { return h.l.Rent().MinimumBalance(0) }

func (h *harness) key(wallet solana.PublicKey, price, size uint64, public bool) TradeStateKey {
	k := TradeStateKey{
		Wallet:       wallet,
		AuctionHouse: h.ahKey,
		TreasuryMint: h.treasuryMint,
		TokenMint:    h.nft,
		Price:        price,
		Size:         size,
	}
	if !public {
		account := h.sellerATA
		k.TokenAccount = &account
	}
	return k
}

func (h *harness) find(k TradeStateKey) (solana.PublicKey, uint8) {
	h.t.Helper()
	addr, bump, err := k.Find()
	if err != nil {
		h.t.Fatalf("trade state address: %v", err)
	}
	return addr, bump
}

func (h *harness) depositParams(wallet solana.PublicKey, amount uint64) DepositParams {
	_, bump := h.escrow(wallet)
	return DepositParams{
		AuctionHouse:      h.ahKey,
		Wallet:            wallet,
		PaymentAccount:    wallet,
		TransferAuthority: wallet,
		EscrowBump:        bump,
		Amount:            amount,
	}
}

func (h *harness) withdrawParams(wallet solana.PublicKey, amount uint64) WithdrawParams {
	_, bump := h.escrow(wallet)
	return WithdrawParams{AuctionHouse: h.ahKey, Wallet: wallet, ReceiptAccount: wallet, EscrowBump: bump, Amount: amount}
}

func (h *harness) sellParams(price uint64) SellParams {
	key := h.key(h.seller, price, 1, false)
	_, bump := h.find(key)
	_, freeBump := h.find(key.WithPrice(0))
	_, signerBump, _ := FindProgramAsSignerAddress()
	return SellParams{
		AuctionHouse:        h.ahKey,
		Wallet:              h.seller,
		TokenAccount:        h.sellerATA,
		Metadata:            h.metadata,
		Price:               price,
		Size:                1,
		TradeStateBump:      bump,
		FreeTradeStateBump:  freeBump,
		ProgramAsSignerBump: signerBump,
	}
}

func (h *harness) buyParams(price uint64, public bool) BuyParams {
	_, bump := h.find(h.key(h.buyer, price, 1, public))
	_, escrowBump := h.escrow(h.buyer)
	return BuyParams{
		AuctionHouse:      h.ahKey,
		Wallet:            h.buyer,
		PaymentAccount:    h.buyer,
		TransferAuthority: h.buyer,
		TokenAccount:      h.sellerATA,
		Metadata:          h.metadata,
		Price:             price,
		Size:              1,
		TradeStateBump:    bump,
		EscrowBump:        escrowBump,
	}
}

func (h *harness) executeParams(price, sellerPrice uint64, public bool) ExecuteSaleParams {
	buyerTS, _ := h.find(h.key(h.buyer, price, 1, public))
	sellerTS, _ := h.find(h.key(h.seller, sellerPrice, 1, false))
	_, freeBump := h.find(h.key(h.seller, 0, 1, false))
	_, signerBump, _ := FindProgramAsSignerAddress()
	_, escrowBump := h.escrow(h.buyer)
	buyerATA, _, _ := token.FindAssociatedAddress(h.buyer, h.nft)
	receipt := h.seller
	if !h.house().IsNative() {
		receipt, _, _ = token.FindAssociatedAddress(h.seller, h.treasuryMint)
	}
	return ExecuteSaleParams{
		AuctionHouse:             h.ahKey,
		Buyer:                    h.buyer,
		Seller:                   h.seller,
		TokenAccount:             h.sellerATA,
		TokenMint:                h.nft,
		Metadata:                 h.metadata,
		SellerPaymentReceipt:     receipt,
		BuyerReceiptTokenAccount: buyerATA,
		BuyerTradeState:          buyerTS,
		SellerTradeState:         sellerTS,
		EscrowBump:               escrowBump,
		FreeTradeStateBump:       freeBump,
		ProgramAsSignerBump:      signerBump,
		Price:                    price,
		Size:                     1,
	}
}

func (h *harness) sell(call Call, p SellParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.Sell(l, c, p) })
}

func (h *harness) buy(call Call, p BuyParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.Buy(l, c, p) })
}

func (h *harness) publicBuy(call Call, p BuyParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.PublicBuy(l, c, p) })
}

func (h *harness) deposit(call Call, p DepositParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.Deposit(l, c, p) })
}

func (h *harness) withdraw(call Call, p WithdrawParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.Withdraw(l, c, p) })
}

func (h *harness) cancel(call Call, p CancelParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.Cancel(l, c, p) })
}

func (h *harness) executeSale(call Call, p ExecuteSaleParams) (*Result, error) {
	return h.exec(call, func(l state.Ledger, c Call) (*Result, error) { return h.eng.ExecuteSale(l, c, p) })
}

func (h *harness) delegate(authority solana.PublicKey) (*Result, error) {
	return h.exec(signed(h.authority), func(l state.Ledger, c Call) (*Result, error) {
		return h.eng.DelegateAuctioneer(l, c, AuctioneerParams{AuctionHouse: h.ahKey, AuctioneerAuthority: authority})
	})
}

func (h *harness) active(addr solana.PublicKey) bool {
	h.t.Helper()
	ok, err := TradeStateActive(h.l, addr)
	if err != nil {
		h.t.Fatalf("trade state: %v", err)
	}
	return ok
}

func (h *harness) root() common.Hash { return h.l.Hash() }
