// Package auctionhouse implements the custody and settlement core of a
// marketplace: instance records, per-wallet escrow, address-bound trade
// states, delegation to an external auctioneer and sale execution.
//
// Every operation is a function over a state.Ledger. Callers run each one as
// an atomic unit (state.Manager.Atomic); the package itself holds no locks
// and performs no rollback.
package auctionhouse

import (
	"math"

	"github.com/gagliardetto/solana-go"
)

// ProgramID owns instance records, auctioneer records and trade states.
var ProgramID = solana.MustPublicKeyFromBase58("hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk")

// ModuleName is the pause key of the marketplace.
const ModuleName = "auctionhouse"

const (
	prefixSeed     = "auction_house"
	feePayerSeed   = "fee_payer"
	treasurySeed   = "treasury"
	signerSeed     = "signer"
	auctioneerSeed = "auctioneer"
)

const (
	TradeStateSize = 1

	// AuctionHouseSize is the allocated size of an instance record:
	// discriminator, seven keys, bumps and flags, the auctioneer address and
	// a reserved tail.
	AuctionHouseSize = 8 + 32*7 + 1 + 1 + 1 + 2 + 1 + 8 + 1 + 32 + 172

	// AuctioneerSize is the allocated size of a delegated authority record.
	AuctioneerSize = 8 + 32 + 32 + 1 + 63

	// MaxBasisPoints is a 100% seller fee.
	MaxBasisPoints = 10_000
)

// AuctioneerPrice is the sentinel price of a listing whose price is left to
// the auctioneer.
const AuctioneerPrice uint64 = math.MaxUint64
