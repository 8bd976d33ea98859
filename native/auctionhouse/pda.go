package auctionhouse

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

func le64(v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:]
}

// FindAuctionHouseAddress derives the instance record of (authority, treasury
// mint).
func FindAuctionHouseAddress(authority, treasuryMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(prefixSeed), authority[:], treasuryMint[:]}, ProgramID)
}

// FindFeeAccountAddress derives the fee account that pays rent on behalf of
// the instance.
func FindFeeAccountAddress(auctionHouse solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(prefixSeed), auctionHouse[:], []byte(feePayerSeed)}, ProgramID)
}

// FindTreasuryAddress derives the account that collects marketplace fees.
func FindTreasuryAddress(auctionHouse solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(prefixSeed), auctionHouse[:], []byte(treasurySeed)}, ProgramID)
}

// FindEscrowAddress derives the escrow of wallet under the instance.
func FindEscrowAddress(auctionHouse, wallet solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(prefixSeed), auctionHouse[:], wallet[:]}, ProgramID)
}

// FindProgramAsSignerAddress derives the delegate approved on listed holding
// accounts.
func FindProgramAsSignerAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(prefixSeed), []byte(signerSeed)}, ProgramID)
}

// FindAuctioneerAddress derives the delegated authority record binding
// authority to the instance.
func FindAuctioneerAddress(auctionHouse, authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(auctioneerSeed), auctionHouse[:], authority[:]}, ProgramID)
}

// TradeStateKey names an intent. A nil TokenAccount selects the public
// scheme, which leaves the holding account out of the address.
type TradeStateKey struct {
	Wallet       solana.PublicKey
	AuctionHouse solana.PublicKey
	TokenAccount *solana.PublicKey
	TreasuryMint solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	Size         uint64
}

// Public reports whether the key uses the price-free public scheme.
func (k TradeStateKey) Public() bool { return k.TokenAccount == nil }

// WithPrice returns a copy of k at price.
func (k TradeStateKey) WithPrice(price uint64) TradeStateKey {
	k.Price = price
	return k
}

// Seeds returns the ordered derivation inputs of k.
func (k TradeStateKey) Seeds() [][]byte {
	seeds := [][]byte{[]byte(prefixSeed), k.Wallet[:], k.AuctionHouse[:]}
	if k.TokenAccount != nil {
		seeds = append(seeds, k.TokenAccount[:])
	}
	return append(seeds, k.TreasuryMint[:], k.TokenMint[:], le64(k.Price), le64(k.Size))
}

// Find returns the trade state address and canonical bump of k.
func (k TradeStateKey) Find() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(k.Seeds(), ProgramID)
}

// Address re-derives the trade state address of k with bump.
func (k TradeStateKey) Address(bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(append(k.Seeds(), []byte{bump}), ProgramID)
}
