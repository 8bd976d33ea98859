package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/system"
)

// CreateAuctionHouseParams configures a new instance. Payer funds the
// record and must sign.
type CreateAuctionHouseParams struct {
	Payer                         solana.PublicKey
	Authority                     solana.PublicKey
	TreasuryMint                  solana.PublicKey
	FeeWithdrawalDestination      solana.PublicKey
	TreasuryWithdrawalDestination solana.PublicKey
	SellerFeeBasisPoints          uint16
	CanChangeSalePrice            bool
}

// CreateAuctionHouse allocates the instance record of (authority, treasury
// mint). A custom treasury mint also gets a treasury holding account owned by
// the instance.
func (e *Engine) CreateAuctionHouse(l state.Ledger, call Call, p CreateAuctionHouseParams) (*Result, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	if !call.Signed(p.Payer) {
		return nil, fail(ErrNoValidSignerPresent, "payer %s did not sign", p.Payer)
	}
	if p.SellerFeeBasisPoints > MaxBasisPoints {
		return nil, fail(ErrInvalidBasisPoints, "%d", p.SellerFeeBasisPoints)
	}
	key, bump, err := FindAuctionHouseAddress(p.Authority, p.TreasuryMint)
	if err != nil {
		return nil, err
	}
	feeAccount, feeBump, err := FindFeeAccountAddress(key)
	if err != nil {
		return nil, err
	}
	treasury, treasuryBump, err := FindTreasuryAddress(key)
	if err != nil {
		return nil, err
	}
	native := p.TreasuryMint.Equals(nativeMint)
	if !native {
		if _, err := e.assets.Mint(l, p.TreasuryMint); err != nil {
			return nil, fail(ErrUninitializedAccount, "treasury mint %s: %v", p.TreasuryMint, err)
		}
		dest, err := e.holding(l, p.TreasuryWithdrawalDestination)
		if err != nil {
			return nil, err
		}
		if !dest.Mint.Equals(p.TreasuryMint) {
			return nil, fail(ErrPublicKeyMismatch, "treasury withdrawal destination holds %s", dest.Mint)
		}
	}
	if err := system.CreateAccount(l, p.Payer, key, AuctionHouseSize, ProgramID); err != nil {
		return nil, err
	}
	ah := &AuctionHouse{
		FeeAccount:                    feeAccount,
		Treasury:                      treasury,
		TreasuryWithdrawalDestination: p.TreasuryWithdrawalDestination,
		FeeWithdrawalDestination:      p.FeeWithdrawalDestination,
		TreasuryMint:                  p.TreasuryMint,
		Authority:                     p.Authority,
		Creator:                       p.Authority,
		Bump:                          bump,
		TreasuryBump:                  treasuryBump,
		FeePayerBump:                  feeBump,
		SellerFeeBasisPoints:          p.SellerFeeBasisPoints,
		CanChangeSalePrice:            p.CanChangeSalePrice,
	}
	if err := storeAuctionHouse(l, key, ah); err != nil {
		return nil, err
	}
	if !native {
		if err := e.assets.InitializeAccount(l, p.Payer, treasury, p.TreasuryMint, key); err != nil {
			return nil, err
		}
	}
	l.AppendEvent(newInstanceEvent(EventTypeCreated, key, ah))
	return &Result{AuctionHouse: key, Payer: p.Payer, Bump: bump}, nil
}
