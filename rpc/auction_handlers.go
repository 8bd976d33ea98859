package rpc

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/auctioneer"
	"auctionhouse/native/auctionhouse"
)

// Auction calls ignore the request-level auctioneer: the module signs with
// its own authority.

func auctionAuthorize(s *Server, l state.Ledger, call auctionhouse.Call, p auctionHouseParams) (interface{}, error) {
	return s.auction.Authorize(l, call.Signers, p.AuctionHouse)
}

type auctionDepositParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.DepositParams
}

func auctionDeposit(s *Server, l state.Ledger, call auctionhouse.Call, p auctionDepositParams) (interface{}, error) {
	return s.auction.Deposit(l, call.Signers, p.AuthorityBump, p.DepositParams)
}

type auctionWithdrawParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.WithdrawParams
}

func auctionWithdraw(s *Server, l state.Ledger, call auctionhouse.Call, p auctionWithdrawParams) (interface{}, error) {
	return s.auction.Withdraw(l, call.Signers, p.AuthorityBump, p.WithdrawParams)
}

type auctionSellParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.SellParams
	auctioneer.ListingParams
}

func auctionSell(s *Server, l state.Ledger, call auctionhouse.Call, p auctionSellParams) (interface{}, error) {
	return s.auction.Sell(l, call.Signers, p.AuthorityBump, p.SellParams, p.ListingParams)
}

type auctionBuyParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.BuyParams
}

func auctionBuy(s *Server, l state.Ledger, call auctionhouse.Call, p auctionBuyParams) (interface{}, error) {
	return s.auction.Buy(l, call.Signers, p.AuthorityBump, p.BuyParams)
}

type auctionCancelParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.CancelParams
}

func auctionCancel(s *Server, l state.Ledger, call auctionhouse.Call, p auctionCancelParams) (interface{}, error) {
	return s.auction.Cancel(l, call.Signers, p.AuthorityBump, p.CancelParams)
}

type auctionExecuteParams struct {
	AuthorityBump uint8 `json:"authorityBump"`
	auctionhouse.ExecuteSaleParams
}

func auctionExecuteSale(s *Server, l state.Ledger, call auctionhouse.Call, p auctionExecuteParams) (interface{}, error) {
	return s.auction.ExecuteSale(l, call.Signers, p.AuthorityBump, p.ExecuteSaleParams)
}

type listingView struct {
	Address solana.PublicKey `json:"address"`
	*auctioneer.ListingConfig
}

func getListing(_ *Server, l state.Ledger, key auctioneer.ListingKey) (interface{}, error) {
	addr, _, err := key.Find()
	if err != nil {
		return nil, err
	}
	cfg, err := auctioneer.LoadListingConfig(l, addr)
	if err != nil {
		return nil, err
	}
	return listingView{Address: addr, ListingConfig: cfg}, nil
}
