package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/system"
)

// AuctioneerParams names the auctioneer authority bound to (or unbound from)
// an instance. The instance authority signs and pays.
type AuctioneerParams struct {
	AuctionHouse        solana.PublicKey
	AuctioneerAuthority solana.PublicKey
}

// DelegateAuctioneer hands authorization of the instance to the auctioneer
// authority by writing its delegated authority record.
func (e *Engine) DelegateAuctioneer(l state.Ledger, call Call, p AuctioneerParams) (*Result, error) {
	inst, err := e.openOperator(l, p.AuctionHouse, call)
	if err != nil {
		return nil, err
	}
	if inst.ah.HasAuctioneer {
		return nil, fail(ErrAuctionHouseAlreadyDelegated, "%s delegates to %s", inst.key, inst.ah.AuctioneerAddress)
	}
	record, err := e.writeAuctioneer(l, inst, p.AuctioneerAuthority)
	if err != nil {
		return nil, err
	}
	l.AppendEvent(newDelegationEvent(EventTypeDelegated, inst.key, p.AuctioneerAuthority, record))
	return &Result{AuctionHouse: inst.key, Auctioneer: record, Payer: inst.ah.Authority}, nil
}

// UpdateAuctioneer re-points delegation to a new auctioneer authority. The
// old record is removed and its rent returned to the instance authority.
func (e *Engine) UpdateAuctioneer(l state.Ledger, call Call, p AuctioneerParams) (*Result, error) {
	inst, err := e.openOperator(l, p.AuctionHouse, call)
	if err != nil {
		return nil, err
	}
	if !inst.ah.HasAuctioneer {
		return nil, ErrAuctionHouseNotDelegated
	}
	if err := e.dropAuctioneer(l, inst); err != nil {
		return nil, err
	}
	record, err := e.writeAuctioneer(l, inst, p.AuctioneerAuthority)
	if err != nil {
		return nil, err
	}
	l.AppendEvent(newDelegationEvent(EventTypeAuctioneerUpdated, inst.key, p.AuctioneerAuthority, record))
	return &Result{AuctionHouse: inst.key, Auctioneer: record, Payer: inst.ah.Authority}, nil
}

// RevokeAuctioneer returns authorization to wallets and the instance
// authority.
func (e *Engine) RevokeAuctioneer(l state.Ledger, call Call, p AuctioneerParams) (*Result, error) {
	inst, err := e.openOperator(l, p.AuctionHouse, call)
	if err != nil {
		return nil, err
	}
	if !inst.ah.HasAuctioneer {
		return nil, ErrAuctionHouseNotDelegated
	}
	record := inst.ah.AuctioneerAddress
	if err := e.dropAuctioneer(l, inst); err != nil {
		return nil, err
	}
	inst.ah.HasAuctioneer = false
	inst.ah.AuctioneerAddress = solana.PublicKey{}
	if err := storeAuctionHouse(l, inst.key, inst.ah); err != nil {
		return nil, err
	}
	l.AppendEvent(newDelegationEvent(EventTypeAuctioneerRevoked, inst.key, solana.PublicKey{}, record))
	return &Result{AuctionHouse: inst.key, Auctioneer: record}, nil
}

func (e *Engine) writeAuctioneer(l state.Ledger, inst *instance, authority solana.PublicKey) (solana.PublicKey, error) {
	record, bump, err := FindAuctioneerAddress(inst.key, authority)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := system.CreateAccount(l, inst.ah.Authority, record, AuctioneerSize, ProgramID); err != nil {
		return solana.PublicKey{}, err
	}
	rec := &Auctioneer{AuctioneerAuthority: authority, AuctionHouse: inst.key, Bump: bump}
	if err := storeAuctioneer(l, record, rec); err != nil {
		return solana.PublicKey{}, err
	}
	inst.ah.HasAuctioneer = true
	inst.ah.AuctioneerAddress = record
	if err := storeAuctionHouse(l, inst.key, inst.ah); err != nil {
		return solana.PublicKey{}, err
	}
	return record, nil
}

func (e *Engine) dropAuctioneer(l state.Ledger, inst *instance) error {
	record := inst.ah.AuctioneerAddress
	acc, err := l.GetAccount(record)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	if err := system.Debit(l, ProgramID, record, inst.ah.Authority, acc.Lamports); err != nil {
		return err
	}
	return l.DeleteAccount(record)
}
