package auctioneer

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

const (
	// ListingConfigVersion is the layout version written by Sell.
	ListingConfigVersion uint8 = 0
	// ListingConfigSize is the allocated size of a listing config account.
	ListingConfigSize = 8 + 1 + (1 + 8 + 32) + 8 + 8 + 8 + 8 + 4 + 4 + 1 + 1
)

var listingConfigDiscriminator = func() [8]byte {
	sum := sha256.Sum256([]byte("account:ListingConfig"))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}()

// Bid is the highest bid recorded against a listing.
type Bid struct {
	Version         uint8
	Amount          uint64
	BuyerTradeState solana.PublicKey
}

// IsZero reports whether no bid has been placed.
func (b Bid) IsZero() bool { return b.Amount == 0 && b.BuyerTradeState.IsZero() }

// ListingConfig holds the auction rules of one listing. Times are unix
// seconds.
type ListingConfig struct {
	Version            uint8
	HighestBid         Bid
	EndTime            int64
	StartTime          int64
	ReservePrice       uint64
	MinBidIncrement    uint64
	TimeExtPeriod      uint32
	TimeExtDelta       uint32
	AllowHighBidCancel bool
	Bump               uint8
}

// ListingKey identifies the listing a config governs.
type ListingKey struct {
	Wallet       solana.PublicKey
	AuctionHouse solana.PublicKey
	TokenAccount solana.PublicKey
	TreasuryMint solana.PublicKey
	TokenMint    solana.PublicKey
	Size         uint64
}

// Find derives the listing config address for k.
func (k ListingKey) Find() (solana.PublicKey, uint8, error) {
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, k.Size)
	return solana.FindProgramAddress([][]byte{
		[]byte(ListingConfigSeed),
		k.Wallet[:],
		k.AuctionHouse[:],
		k.TokenAccount[:],
		k.TreasuryMint[:],
		k.TokenMint[:],
		size,
	}, ProgramID)
}

// LoadListingConfig reads the listing config at key.
func LoadListingConfig(l state.Ledger, key solana.PublicKey) (*ListingConfig, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return nil, fail(ErrListingNotFound, "%s", key)
	}
	data := acc.Data
	if len(data) < 8 || !bytes.Equal(data[:8], listingConfigDiscriminator[:]) {
		return nil, fail(ErrListingNotFound, "%s carries no listing config", key)
	}
	cfg := new(ListingConfig)
	if err := bin.NewBorshDecoder(data[8:]).Decode(cfg); err != nil {
		return nil, fmt.Errorf("listing config %s: %w", key, err)
	}
	return cfg, nil
}

func storeListingConfig(l state.Ledger, key solana.PublicKey, cfg *ListingConfig) error {
	acc, err := l.GetAccount(key)
	if err != nil {
		return err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return fail(ErrListingNotFound, "%s", key)
	}
	var buf bytes.Buffer
	buf.Write(listingConfigDiscriminator[:])
	if err := bin.NewBorshEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if buf.Len() > ListingConfigSize {
		return fmt.Errorf("auctioneer: listing config is %d bytes, limit %d", buf.Len(), ListingConfigSize)
	}
	data := make([]byte, ListingConfigSize)
	copy(data, buf.Bytes())
	acc.Data = data
	return l.PutAccount(key, acc)
}
