package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

// AuthorityKind selects who authorizes state transitions on an instance.
type AuthorityKind uint8

const (
	// AuthorityWallet means wallets and the instance authority act directly.
	AuthorityWallet AuthorityKind = iota
	// AuthorityDelegated means an auctioneer must co-sign.
	AuthorityDelegated
)

func (k AuthorityKind) String() string {
	if k == AuthorityDelegated {
		return "delegated"
	}
	return "wallet"
}

// Authority is the authorizer resolved for one call.
type Authority struct {
	Kind AuthorityKind
	// Key and Record identify the auctioneer authority and its delegated
	// authority record on the delegated variant.
	Key    solana.PublicKey
	Record solana.PublicKey
}

// Authorize checks that call carries the authority's signature. The wallet
// variant defers signer checks to the operation.
func (a Authority) Authorize(call Call) error {
	if a.Kind == AuthorityDelegated && !call.Signed(a.Key) {
		return fail(ErrNoValidSignerPresent, "auctioneer authority %s did not sign", a.Key)
	}
	return nil
}

// ResolveAuthority decides which authority governs call on the instance at
// key. A call naming an auctioneer needs a delegated instance whose record
// sits at the address derived from (instance, auctioneer) and binds exactly
// that pair. A direct call on a delegated instance is only accepted when
// walletDirect is set.
func ResolveAuthority(l state.Ledger, key solana.PublicKey, ah *AuctionHouse, call Call, walletDirect bool) (Authority, error) {
	if !call.Delegated() {
		if ah.HasAuctioneer && !walletDirect {
			return Authority{}, ErrMustUseAuctioneerHandler
		}
		return Authority{Kind: AuthorityWallet}, nil
	}
	if !ah.HasAuctioneer {
		return Authority{}, ErrNoAuctioneerProgramSet
	}
	claimed := *call.Auctioneer
	record, _, err := FindAuctioneerAddress(key, claimed)
	if err != nil {
		return Authority{}, err
	}
	if !record.Equals(ah.AuctioneerAddress) {
		return Authority{}, fail(ErrInvalidSeedsOrAuctionHouseNotDelegated, "auctioneer %s", claimed)
	}
	rec, err := LoadAuctioneer(l, record)
	if err != nil {
		return Authority{}, err
	}
	if !rec.AuctionHouse.Equals(key) || !rec.AuctioneerAuthority.Equals(claimed) {
		return Authority{}, fail(ErrInvalidAuctioneer, "record %s", record)
	}
	auth := Authority{Kind: AuthorityDelegated, Key: claimed, Record: record}
	if err := auth.Authorize(call); err != nil {
		return Authority{}, err
	}
	return auth, nil
}
