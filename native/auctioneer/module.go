// Package auctioneer is a timed-auction policy that drives a delegated
// marketplace instance. It owns listing configs (window, reserve price, bid
// increment, time extension) and calls the marketplace core with its own
// authority co-signing, inside the same atomic unit as the caller.
package auctioneer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/core/types"
	"auctionhouse/native/auctionhouse"
	nativecommon "auctionhouse/native/common"
	"auctionhouse/native/system"
	"auctionhouse/native/token"
)

// ProgramID owns listing configs and derives the auctioneer authority.
var ProgramID = solana.MustPublicKeyFromBase58("GrZrqXcE3nwRZ7eaoXocKvBRioYEoeZR4hQShJ5VN2oZ")

// ModuleName is the pause switch of the auction policy.
const ModuleName = "auctioneer"

const (
	AuthoritySeed     = "auctioneer"
	ListingConfigSeed = "listing_config"
)

const (
	EventTypeListingConfigured = "auctioneer.listing.configured"
	EventTypeHighestBid        = "auctioneer.bid.highest"
	EventTypeExtended          = "auctioneer.auction.extended"
	EventTypeListingClosed     = "auctioneer.listing.closed"
)

// Holdings reads holding accounts.
type Holdings interface {
	Account(l state.Ledger, key solana.PublicKey) (*token.Account, error)
}

// FindAuthority derives the auctioneer authority of an instance.
func FindAuthority(auctionHouse solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(AuthoritySeed), auctionHouse[:]}, ProgramID)
}

// Module applies auction rules before handing calls to the core.
type Module struct {
	core     *auctionhouse.Engine
	holdings Holdings
	pauses   nativecommon.PauseView
	now      func() time.Time
}

// New returns a module driving core.
func New(core *auctionhouse.Engine, holdings Holdings) *Module {
	return &Module{core: core, holdings: holdings, now: time.Now}
}

// SetClock replaces the wall clock used for auction windows.
func (m *Module) SetClock(now func() time.Time) { m.now = now }

// SetPauses configures the pause view consulted before every auction call.
func (m *Module) SetPauses(p nativecommon.PauseView) { m.pauses = p }

func (m *Module) guard() error {
	if err := nativecommon.Guard(m.pauses, ModuleName); err != nil {
		return fmt.Errorf("auctioneer: %w", err)
	}
	return nil
}

// call appends the auctioneer authority of the instance to signers and marks
// the call as delegated.
func (m *Module) call(auctionHouse solana.PublicKey, bump uint8, signers []solana.PublicKey) (auctionhouse.Call, error) {
	if err := m.guard(); err != nil {
		return auctionhouse.Call{}, err
	}
	authority, canonical, err := FindAuthority(auctionHouse)
	if err != nil {
		return auctionhouse.Call{}, err
	}
	if bump != canonical {
		return auctionhouse.Call{}, fail(ErrBumpSeedNotInHashMap, "authority bump %d, canonical %d", bump, canonical)
	}
	out := make([]solana.PublicKey, 0, len(signers)+1)
	out = append(out, signers...)
	out = append(out, authority)
	return auctionhouse.Call{Signers: out, Auctioneer: &authority}, nil
}

// Authorize delegates the instance to this module's authority. The instance
// authority signs.
func (m *Module) Authorize(l state.Ledger, signers []solana.PublicKey, auctionHouse solana.PublicKey) (*auctionhouse.Result, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	authority, _, err := FindAuthority(auctionHouse)
	if err != nil {
		return nil, err
	}
	return m.core.DelegateAuctioneer(l, auctionhouse.Call{Signers: signers}, auctionhouse.AuctioneerParams{
		AuctionHouse:        auctionHouse,
		AuctioneerAuthority: authority,
	})
}

// Deposit funds the wallet's escrow through the delegated path.
func (m *Module) Deposit(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.DepositParams) (*auctionhouse.Result, error) {
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	return m.core.Deposit(l, call, p)
}

// Withdraw drains the wallet's escrow through the delegated path.
func (m *Module) Withdraw(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.WithdrawParams) (*auctionhouse.Result, error) {
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	return m.core.Withdraw(l, call, p)
}

// ListingParams are the auction rules attached to a listing. Zero values
// disable the reserve, the increment and the time extension.
type ListingParams struct {
	StartTime          int64
	EndTime            int64
	ReservePrice       uint64
	MinBidIncrement    uint64
	TimeExtPeriod      uint32
	TimeExtDelta       uint32
	AllowHighBidCancel bool
}

// Sell lists the asset at the auctioneer price and stores its rules.
func (m *Module) Sell(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.SellParams, rules ListingParams) (*auctionhouse.Result, error) {
	if rules.EndTime <= rules.StartTime {
		return nil, fail(ErrInvalidTimeWindow, "start %d, end %d", rules.StartTime, rules.EndTime)
	}
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	res, err := m.core.Sell(l, call, p)
	if err != nil {
		return nil, err
	}
	key, err := m.listingKey(l, p.AuctionHouse, p.TokenAccount, p.Size)
	if err != nil {
		return nil, err
	}
	addr, bump, err := key.Find()
	if err != nil {
		return nil, err
	}
	if err := system.CreateAccount(l, p.Wallet, addr, ListingConfigSize, ProgramID); err != nil {
		return nil, fail(ErrListingExists, "%s: %v", addr, err)
	}
	cfg := &ListingConfig{
		Version:            ListingConfigVersion,
		StartTime:          rules.StartTime,
		EndTime:            rules.EndTime,
		ReservePrice:       rules.ReservePrice,
		MinBidIncrement:    rules.MinBidIncrement,
		TimeExtPeriod:      rules.TimeExtPeriod,
		TimeExtDelta:       rules.TimeExtDelta,
		AllowHighBidCancel: rules.AllowHighBidCancel,
		Bump:               bump,
	}
	if err := storeListingConfig(l, addr, cfg); err != nil {
		return nil, err
	}
	l.AppendEvent(&types.Event{Type: EventTypeListingConfigured, Attributes: map[string]string{
		"listingConfig": addr.String(),
		"tradeState":    res.TradeState.String(),
		"startTime":     strconv.FormatInt(rules.StartTime, 10),
		"endTime":       strconv.FormatInt(rules.EndTime, 10),
	}})
	return res, nil
}

// Buy places a bid on a running auction. The bid must clear the reserve and
// beat the highest bid by the minimum increment. A bid landing inside the
// extension period pushes the end time out.
func (m *Module) Buy(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.BuyParams) (*auctionhouse.Result, error) {
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	addr, cfg, err := m.listing(l, p.AuctionHouse, p.TokenAccount, p.Size)
	if err != nil {
		return nil, err
	}
	now := m.now().Unix()
	if now < cfg.StartTime {
		return nil, fail(ErrAuctionNotStarted, "starts at %d", cfg.StartTime)
	}
	if now > cfg.EndTime {
		return nil, fail(ErrAuctionEnded, "ended at %d", cfg.EndTime)
	}
	if p.Price < cfg.ReservePrice {
		return nil, fail(ErrBelowReservePrice, "bid %d, reserve %d", p.Price, cfg.ReservePrice)
	}
	if !cfg.HighestBid.IsZero() {
		if p.Price <= cfg.HighestBid.Amount {
			return nil, fail(ErrBidTooLow, "bid %d, highest %d", p.Price, cfg.HighestBid.Amount)
		}
		if p.Price-cfg.HighestBid.Amount < cfg.MinBidIncrement {
			return nil, fail(ErrBelowBidIncrement, "bid %d, highest %d, increment %d", p.Price, cfg.HighestBid.Amount, cfg.MinBidIncrement)
		}
	}

	res, err := m.core.Buy(l, call, p)
	if err != nil {
		return nil, err
	}
	cfg.HighestBid = Bid{Amount: p.Price, BuyerTradeState: res.TradeState}
	extended := cfg.TimeExtPeriod > 0 && cfg.EndTime-now <= int64(cfg.TimeExtPeriod)
	if extended {
		cfg.EndTime += int64(cfg.TimeExtDelta)
	}
	if err := storeListingConfig(l, addr, cfg); err != nil {
		return nil, err
	}
	l.AppendEvent(&types.Event{Type: EventTypeHighestBid, Attributes: map[string]string{
		"listingConfig": addr.String(),
		"tradeState":    res.TradeState.String(),
		"amount":        strconv.FormatUint(p.Price, 10),
	}})
	if extended {
		l.AppendEvent(&types.Event{Type: EventTypeExtended, Attributes: map[string]string{
			"listingConfig": addr.String(),
			"endTime":       strconv.FormatInt(cfg.EndTime, 10),
		}})
	}
	return res, nil
}

// Cancel withdraws a bid or the listing. The highest bid stays unless the
// listing allows it to be cancelled; cancelling the listing drops its
// config.
func (m *Module) Cancel(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.CancelParams) (*auctionhouse.Result, error) {
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	holding, err := m.holdings.Account(l, p.TokenAccount)
	if err != nil {
		return nil, err
	}
	addr, cfg, err := m.listing(l, p.AuctionHouse, p.TokenAccount, p.Size)
	if err != nil {
		return nil, err
	}
	isListing := p.Wallet.Equals(holding.Owner)
	if !isListing && cfg.HighestBid.BuyerTradeState.Equals(p.TradeState) {
		if !cfg.AllowHighBidCancel {
			return nil, fail(ErrCannotCancelHighestBid, "%s", p.TradeState)
		}
		cfg.HighestBid = Bid{}
		if err := storeListingConfig(l, addr, cfg); err != nil {
			return nil, err
		}
	}
	res, err := m.core.Cancel(l, call, p)
	if err != nil {
		return nil, err
	}
	if isListing {
		if err := closeListing(l, addr, holding.Owner); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ExecuteSale settles the highest bid once the auction has ended.
func (m *Module) ExecuteSale(l state.Ledger, signers []solana.PublicKey, authorityBump uint8, p auctionhouse.ExecuteSaleParams) (*auctionhouse.Result, error) {
	call, err := m.call(p.AuctionHouse, authorityBump, signers)
	if err != nil {
		return nil, err
	}
	addr, cfg, err := m.listing(l, p.AuctionHouse, p.TokenAccount, p.Size)
	if err != nil {
		return nil, err
	}
	if now := m.now().Unix(); now <= cfg.EndTime {
		return nil, fail(ErrAuctionActive, "ends at %d", cfg.EndTime)
	}
	if !cfg.HighestBid.BuyerTradeState.Equals(p.BuyerTradeState) || cfg.HighestBid.Amount != p.Price {
		return nil, fail(ErrNotHighestBidder, "highest bid is %d at %s", cfg.HighestBid.Amount, cfg.HighestBid.BuyerTradeState)
	}
	res, err := m.core.ExecuteSale(l, call, p)
	if err != nil {
		return nil, err
	}
	if err := closeListing(l, addr, p.Seller); err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Module) listingKey(l state.Ledger, auctionHouse, tokenAccount solana.PublicKey, size uint64) (ListingKey, error) {
	ah, err := auctionhouse.LoadAuctionHouse(l, auctionHouse)
	if err != nil {
		return ListingKey{}, err
	}
	holding, err := m.holdings.Account(l, tokenAccount)
	if err != nil {
		return ListingKey{}, err
	}
	return ListingKey{
		Wallet:       holding.Owner,
		AuctionHouse: auctionHouse,
		TokenAccount: tokenAccount,
		TreasuryMint: ah.TreasuryMint,
		TokenMint:    holding.Mint,
		Size:         size,
	}, nil
}

func (m *Module) listing(l state.Ledger, auctionHouse, tokenAccount solana.PublicKey, size uint64) (solana.PublicKey, *ListingConfig, error) {
	key, err := m.listingKey(l, auctionHouse, tokenAccount, size)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	addr, _, err := key.Find()
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	cfg, err := LoadListingConfig(l, addr)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return addr, cfg, nil
}

// closeListing returns the config's rent to the seller and removes it.
func closeListing(l state.Ledger, addr, seller solana.PublicKey) error {
	lamports, err := system.Balance(l, addr)
	if err != nil {
		return err
	}
	if err := system.Debit(l, ProgramID, addr, seller, lamports); err != nil {
		return err
	}
	if err := l.DeleteAccount(addr); err != nil {
		return err
	}
	l.AppendEvent(&types.Event{Type: EventTypeListingClosed, Attributes: map[string]string{
		"listingConfig": addr.String(),
	}})
	return nil
}
