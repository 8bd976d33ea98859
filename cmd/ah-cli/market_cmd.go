package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/crypto"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
)

func runHouseCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return printError(stderr, "house requires a subcommand: create, show, fees, treasury")
	}
	switch args[0] {
	case "create":
		return runHouseCreate(args[1:], stdout, stderr)
	case "show":
		return runHouseShow(args[1:], stdout, stderr)
	case "fees":
		return runOperatorWithdraw("ah_withdrawFromFee", args[1:], stdout, stderr)
	case "treasury":
		return runOperatorWithdraw("ah_withdrawFromTreasury", args[1:], stdout, stderr)
	default:
		return printError(stderr, "unknown house subcommand: "+args[0])
	}
}

type pubkeyFlag struct{ key solana.PublicKey }

func (p *pubkeyFlag) String() string { return p.key.String() }

func (p *pubkeyFlag) Set(v string) error {
	key, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return err
	}
	p.key = key
	return nil
}

func runHouseCreate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("house create", stderr)
	keyPath := fs.String("key", "", "authority keystore")
	mint := pubkeyFlag{key: token.NativeMint}
	fs.Var(&mint, "treasury-mint", "payment mint (defaults to native lamports)")
	var feeDest, treasuryDest pubkeyFlag
	fs.Var(&feeDest, "fee-dest", "fee withdrawal destination (defaults to the authority)")
	fs.Var(&treasuryDest, "treasury-dest", "treasury withdrawal destination")
	bps := fs.Uint("fee-bps", 0, "seller fee in basis points")
	canChange := fs.Bool("can-change-price", false, "allow the authority to match sales below the listed price")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *bps > 10_000 {
		return printError(stderr, "--fee-bps must be <= 10000")
	}
	key, err := loadKey(*keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	authority := key.PubKey()
	if feeDest.key.IsZero() {
		feeDest.key = authority
	}
	if treasuryDest.key.IsZero() {
		treasuryDest.key = authority
		if !mint.key.Equals(token.NativeMint) {
			if treasuryDest.key, _, err = token.FindAssociatedAddress(authority, mint.key); err != nil {
				return printError(stderr, err.Error())
			}
		}
	}
	result, err := callRPC("ah_createAuctionHouse", auctionhouse.CreateAuctionHouseParams{
		Payer:                         authority,
		Authority:                     authority,
		TreasuryMint:                  mint.key,
		FeeWithdrawalDestination:      feeDest.key,
		TreasuryWithdrawalDestination: treasuryDest.key,
		SellerFeeBasisPoints:          uint16(*bps),
		CanChangeSalePrice:            *canChange,
	}, key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func runHouseShow(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("house show", stderr)
	var house pubkeyFlag
	fs.Var(&house, "house", "marketplace instance address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, err := callRPC("ah_getAuctionHouse", map[string]solana.PublicKey{"auctionHouse": house.key})
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func runOperatorWithdraw(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr)
	keyPath := fs.String("key", "", "authority keystore")
	var house pubkeyFlag
	fs.Var(&house, "house", "marketplace instance address")
	amount := fs.Uint64("amount", 0, "amount to withdraw")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := loadKey(*keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC(method, auctionhouse.OperatorWithdrawParams{AuctionHouse: house.key, Amount: *amount}, key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func fetchHouse(house solana.PublicKey) (*auctionhouse.AuctionHouse, error) {
	result, err := callRPC("ah_getAuctionHouse", map[string]solana.PublicKey{"auctionHouse": house})
	if err != nil {
		return nil, err
	}
	ah := new(auctionhouse.AuctionHouse)
	if err := json.Unmarshal(result, ah); err != nil {
		return nil, fmt.Errorf("decode auction house: %w", err)
	}
	return ah, nil
}

// paymentAccount is where a wallet pays from: the wallet itself for a native
// instance, otherwise its associated holding account of the treasury mint.
func paymentAccount(ah *auctionhouse.AuctionHouse, wallet solana.PublicKey) (solana.PublicKey, error) {
	if ah.TreasuryMint.Equals(token.NativeMint) {
		return wallet, nil
	}
	addr, _, err := token.FindAssociatedAddress(wallet, ah.TreasuryMint)
	return addr, err
}

type escrowFlags struct {
	keyPath string
	house   pubkeyFlag
	amount  uint64
}

func parseEscrowFlags(name string, args []string, stderr io.Writer) (*escrowFlags, bool) {
	f := &escrowFlags{}
	fs := newFlagSet(name, stderr)
	fs.StringVar(&f.keyPath, "key", "", "wallet keystore")
	fs.Var(&f.house, "house", "marketplace instance address")
	fs.Uint64Var(&f.amount, "amount", 0, "amount in the treasury mint's smallest unit")
	if err := fs.Parse(args); err != nil {
		return nil, false
	}
	return f, true
}

func runDeposit(args []string, stdout, stderr io.Writer) int {
	f, ok := parseEscrowFlags("deposit", args, stderr)
	if !ok {
		return 1
	}
	key, err := loadKey(f.keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	ah, err := fetchHouse(f.house.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	wallet := key.PubKey()
	payment, err := paymentAccount(ah, wallet)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, escrowBump, err := auctionhouse.FindEscrowAddress(f.house.key, wallet)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_deposit", auctionhouse.DepositParams{
		AuctionHouse:      f.house.key,
		Wallet:            wallet,
		PaymentAccount:    payment,
		TransferAuthority: wallet,
		EscrowBump:        escrowBump,
		Amount:            f.amount,
	}, key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func runWithdraw(args []string, stdout, stderr io.Writer) int {
	f, ok := parseEscrowFlags("withdraw", args, stderr)
	if !ok {
		return 1
	}
	key, err := loadKey(f.keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	ah, err := fetchHouse(f.house.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	wallet := key.PubKey()
	receipt, err := paymentAccount(ah, wallet)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, escrowBump, err := auctionhouse.FindEscrowAddress(f.house.key, wallet)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_withdraw", auctionhouse.WithdrawParams{
		AuctionHouse:   f.house.key,
		Wallet:         wallet,
		ReceiptAccount: receipt,
		EscrowBump:     escrowBump,
		Amount:         f.amount,
	}, key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

// tradeFlags names one listing: the asset, its holding account and the terms.
type tradeFlags struct {
	keyPath      string
	house        pubkeyFlag
	tokenAccount pubkeyFlag
	mint         pubkeyFlag
	price        uint64
	size         uint64
}

func newTradeFlagSet(name string, f *tradeFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet(name, stderr)
	fs.StringVar(&f.keyPath, "key", "", "signing wallet keystore")
	fs.Var(&f.house, "house", "marketplace instance address")
	fs.Var(&f.tokenAccount, "token-account", "holding account of the asset")
	fs.Var(&f.mint, "mint", "asset mint")
	fs.Uint64Var(&f.price, "price", 0, "price in the treasury mint's smallest unit")
	fs.Uint64Var(&f.size, "size", 1, "number of units traded")
	return fs
}

func (f *tradeFlags) tradeState(wallet, treasuryMint solana.PublicKey, price uint64) (solana.PublicKey, uint8, error) {
	account := f.tokenAccount.key
	return auctionhouse.TradeStateKey{
		Wallet:       wallet,
		AuctionHouse: f.house.key,
		TokenAccount: &account,
		TreasuryMint: treasuryMint,
		TokenMint:    f.mint.key,
		Price:        price,
		Size:         f.size,
	}.Find()
}

type tradeContext struct {
	key      *crypto.PrivateKey
	ah       *auctionhouse.AuctionHouse
	metadata solana.PublicKey
}

func (f *tradeFlags) load() (*tradeContext, error) {
	key, err := loadKey(f.keyPath)
	if err != nil {
		return nil, err
	}
	ah, err := fetchHouse(f.house.key)
	if err != nil {
		return nil, err
	}
	metadata, _, err := token.FindMetadataAddress(f.mint.key)
	if err != nil {
		return nil, err
	}
	return &tradeContext{key: key, ah: ah, metadata: metadata}, nil
}

func runSell(args []string, stdout, stderr io.Writer) int {
	var f tradeFlags
	if err := newTradeFlagSet("sell", &f, stderr).Parse(args); err != nil {
		return 1
	}
	tc, err := f.load()
	if err != nil {
		return printError(stderr, err.Error())
	}
	seller := tc.key.PubKey()
	_, bump, err := f.tradeState(seller, tc.ah.TreasuryMint, f.price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, freeBump, err := f.tradeState(seller, tc.ah.TreasuryMint, 0)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, signerBump, err := auctionhouse.FindProgramAsSignerAddress()
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_sell", auctionhouse.SellParams{
		AuctionHouse:        f.house.key,
		Wallet:              seller,
		TokenAccount:        f.tokenAccount.key,
		Metadata:            tc.metadata,
		Price:               f.price,
		Size:                f.size,
		TradeStateBump:      bump,
		FreeTradeStateBump:  freeBump,
		ProgramAsSignerBump: signerBump,
	}, tc.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func runBuy(args []string, stdout, stderr io.Writer) int {
	var f tradeFlags
	if err := newTradeFlagSet("buy", &f, stderr).Parse(args); err != nil {
		return 1
	}
	tc, err := f.load()
	if err != nil {
		return printError(stderr, err.Error())
	}
	buyer := tc.key.PubKey()
	payment, err := paymentAccount(tc.ah, buyer)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, bump, err := f.tradeState(buyer, tc.ah.TreasuryMint, f.price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, escrowBump, err := auctionhouse.FindEscrowAddress(f.house.key, buyer)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_buy", auctionhouse.BuyParams{
		AuctionHouse:      f.house.key,
		Wallet:            buyer,
		PaymentAccount:    payment,
		TransferAuthority: buyer,
		TokenAccount:      f.tokenAccount.key,
		Metadata:          tc.metadata,
		Price:             f.price,
		Size:              f.size,
		TradeStateBump:    bump,
		EscrowBump:        escrowBump,
	}, tc.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

func runCancel(args []string, stdout, stderr io.Writer) int {
	var f tradeFlags
	if err := newTradeFlagSet("cancel", &f, stderr).Parse(args); err != nil {
		return 1
	}
	tc, err := f.load()
	if err != nil {
		return printError(stderr, err.Error())
	}
	wallet := tc.key.PubKey()
	tradeState, _, err := f.tradeState(wallet, tc.ah.TreasuryMint, f.price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_cancel", auctionhouse.CancelParams{
		AuctionHouse: f.house.key,
		Wallet:       wallet,
		TokenAccount: f.tokenAccount.key,
		TokenMint:    f.mint.key,
		TradeState:   tradeState,
		Price:        f.price,
		Size:         f.size,
	}, tc.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

// runExecute matches a listing with a bid. The signer is the seller or the
// instance authority.
func runExecute(args []string, stdout, stderr io.Writer) int {
	var f tradeFlags
	var buyer, seller pubkeyFlag
	fs := newTradeFlagSet("execute", &f, stderr)
	fs.Var(&buyer, "buyer", "buyer wallet")
	fs.Var(&seller, "seller", "seller wallet")
	closeAccount := fs.Bool("close-token-account", false, "close the seller's holding account when emptied")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	tc, err := f.load()
	if err != nil {
		return printError(stderr, err.Error())
	}
	treasuryMint := tc.ah.TreasuryMint
	buyerTS, _, err := f.tradeState(buyer.key, treasuryMint, f.price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	sellerTS, _, err := f.tradeState(seller.key, treasuryMint, f.price)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, freeBump, err := f.tradeState(seller.key, treasuryMint, 0)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, escrowBump, err := auctionhouse.FindEscrowAddress(f.house.key, buyer.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	_, signerBump, err := auctionhouse.FindProgramAsSignerAddress()
	if err != nil {
		return printError(stderr, err.Error())
	}
	receipt, _, err := token.FindAssociatedAddress(buyer.key, f.mint.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	sellerReceipt, err := paymentAccount(tc.ah, seller.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	result, err := callRPC("ah_executeSale", auctionhouse.ExecuteSaleParams{
		AuctionHouse:             f.house.key,
		Buyer:                    buyer.key,
		Seller:                   seller.key,
		TokenAccount:             f.tokenAccount.key,
		TokenMint:                f.mint.key,
		Metadata:                 tc.metadata,
		SellerPaymentReceipt:     sellerReceipt,
		BuyerReceiptTokenAccount: receipt,
		BuyerTradeState:          buyerTS,
		SellerTradeState:         sellerTS,
		EscrowBump:               escrowBump,
		FreeTradeStateBump:       freeBump,
		ProgramAsSignerBump:      signerBump,
		Price:                    f.price,
		Size:                     f.size,
		CloseTokenAccount:        *closeAccount,
	}, tc.key)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}
