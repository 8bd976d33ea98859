package rpc

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
)

type auctionHouseParams struct {
	AuctionHouse solana.PublicKey `json:"auctionHouse"`
}

type auctionHouseView struct {
	Address solana.PublicKey `json:"address"`
	*auctionhouse.AuctionHouse
}

func getAuctionHouse(_ *Server, l state.Ledger, p auctionHouseParams) (interface{}, error) {
	ah, err := auctionhouse.LoadAuctionHouse(l, p.AuctionHouse)
	if err != nil {
		return nil, err
	}
	return auctionHouseView{Address: p.AuctionHouse, AuctionHouse: ah}, nil
}

type accountParams struct {
	Address solana.PublicKey `json:"address"`
}

type accountView struct {
	Address  solana.PublicKey `json:"address"`
	Exists   bool             `json:"exists"`
	Lamports uint64           `json:"lamports"`
	Owner    solana.PublicKey `json:"owner"`
	DataLen  int              `json:"dataLen"`
	Holding  *token.Account   `json:"holding,omitempty"`
}

// getAccount reports the ledger record at an address and, for holding
// accounts, the decoded balance.
func getAccount(s *Server, l state.Ledger, p accountParams) (interface{}, error) {
	acc, err := l.GetAccount(p.Address)
	if err != nil {
		return nil, err
	}
	view := accountView{Address: p.Address}
	if acc == nil {
		return view, nil
	}
	view.Exists = true
	view.Lamports = acc.Lamports
	view.Owner = acc.Owner
	view.DataLen = len(acc.Data)
	if acc.IsOwnedBy(token.ProgramID) && len(acc.Data) == token.AccountSize {
		holding, err := s.assets.Account(l, p.Address)
		if err != nil && !errors.Is(err, token.ErrUninitialized) {
			return nil, err
		}
		view.Holding = holding
	}
	return view, nil
}

type tradeStateView struct {
	Address solana.PublicKey `json:"address"`
	Bump    uint8            `json:"bump"`
	Active  bool             `json:"active"`
}

// findTradeState derives the trade state address of an intent. A missing
// tokenAccount selects the public scheme.
func findTradeState(_ *Server, l state.Ledger, key auctionhouse.TradeStateKey) (interface{}, error) {
	addr, bump, err := key.Find()
	if err != nil {
		return nil, err
	}
	active, err := auctionhouse.TradeStateActive(l, addr)
	if err != nil {
		return nil, err
	}
	return tradeStateView{Address: addr, Bump: bump, Active: active}, nil
}

type settlementView struct {
	AuctionHouse solana.PublicKey `json:"auctionHouse"`
	TreasuryMint solana.PublicKey `json:"treasuryMint"`
	Sales        uint64           `json:"sales"`
	Gross        string           `json:"gross"`
	Fee          string           `json:"fee"`
	Net          string           `json:"net"`
}

// getSettlementTotals reports the volume an instance has settled. Sums are
// decimal strings since they can exceed 64 bits.
func getSettlementTotals(_ *Server, l state.Ledger, p auctionHouseParams) (interface{}, error) {
	ah, err := auctionhouse.LoadAuctionHouse(l, p.AuctionHouse)
	if err != nil {
		return nil, err
	}
	totals, err := auctionhouse.SettlementTotals(l, p.AuctionHouse)
	if err != nil {
		return nil, err
	}
	return settlementView{
		AuctionHouse: p.AuctionHouse,
		TreasuryMint: ah.TreasuryMint,
		Sales:        totals.Sales,
		Gross:        totals.Gross.Dec(),
		Fee:          totals.Fee.Dec(),
		Net:          totals.Net.Dec(),
	}, nil
}

type nonceView struct {
	Address solana.PublicKey `json:"address"`
	Nonce   uint64           `json:"nonce"`
}

// getNonce reports the last request nonce an address signed with. The next
// request it signs must carry a larger one.
func getNonce(_ *Server, l state.Ledger, p accountParams) (interface{}, error) {
	last, err := state.SignerNonce(l, p.Address)
	if err != nil {
		return nil, err
	}
	return nonceView{Address: p.Address, Nonce: last}, nil
}
