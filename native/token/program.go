package token

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/events"
	"auctionhouse/core/state"
	nativecommon "auctionhouse/native/common"
	"auctionhouse/native/system"
)

var (
	ErrUninitialized     = errors.New("token: account not initialized")
	ErrAlreadyInUse      = errors.New("token: account already in use")
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	ErrMintMismatch      = errors.New("token: mint mismatch")
	ErrOwnerMismatch     = errors.New("token: owner does not match")
	ErrNonZeroBalance    = errors.New("token: non-native account has balance")
	ErrInvalidMetadata   = errors.New("token: invalid metadata")
	ErrFixedSupply       = errors.New("token: mint has no authority")
)

// Program executes token instructions against a ledger. It carries no state
// of its own; every method reads and writes through the ledger it is handed.
type Program struct{}

// NewProgram returns the token program.
func NewProgram() *Program { return &Program{} }

// ID returns the program id that owns holding accounts.
func (p *Program) ID() solana.PublicKey { return ProgramID }

// Mint loads the mint stored at key.
func (p *Program) Mint(l state.Ledger, key solana.PublicKey) (*Mint, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) || len(acc.Data) != MintSize {
		return nil, fmt.Errorf("%w: mint %s", ErrUninitialized, key)
	}
	mint := new(Mint)
	if err := decode(acc.Data, mint); err != nil {
		return nil, fmt.Errorf("token: decode mint %s: %w", key, err)
	}
	if !mint.IsInitialized {
		return nil, fmt.Errorf("%w: mint %s", ErrUninitialized, key)
	}
	return mint, nil
}

// Account loads the holding account stored at key.
func (p *Program) Account(l state.Ledger, key solana.PublicKey) (*Account, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) || len(acc.Data) != AccountSize {
		return nil, fmt.Errorf("%w: %s", ErrUninitialized, key)
	}
	holding := new(Account)
	if err := decode(acc.Data, holding); err != nil {
		return nil, fmt.Errorf("token: decode account %s: %w", key, err)
	}
	if !holding.IsInitialized {
		return nil, fmt.Errorf("%w: %s", ErrUninitialized, key)
	}
	return holding, nil
}

// Exists reports whether key holds an initialized holding account.
func (p *Program) Exists(l state.Ledger, key solana.PublicKey) (bool, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return false, err
	}
	return acc != nil && acc.IsOwnedBy(ProgramID) && len(acc.Data) == AccountSize, nil
}

func store(l state.Ledger, key solana.PublicKey, v interface{}, size int) error {
	acc, err := l.GetAccount(key)
	if err != nil {
		return err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return fmt.Errorf("%w: %s", ErrUninitialized, key)
	}
	data, err := encode(v, size)
	if err != nil {
		return err
	}
	acc.Data = data
	return l.PutAccount(key, acc)
}

// InitializeMint allocates a mint at key funded by payer.
func (p *Program) InitializeMint(l state.Ledger, payer, key, authority solana.PublicKey, decimals uint8) error {
	if err := system.CreateAccount(l, payer, key, MintSize, ProgramID); err != nil {
		return fmt.Errorf("token: allocate mint: %w", err)
	}
	return store(l, key, &Mint{MintAuthority: authority, Decimals: decimals, IsInitialized: true}, MintSize)
}

// MintTo credits amount of mint to dest. authority must be the mint
// authority and must have signed.
func (p *Program) MintTo(l state.Ledger, mintKey, dest, authority solana.PublicKey, amount uint64) error {
	mint, err := p.Mint(l, mintKey)
	if err != nil {
		return err
	}
	if mint.MintAuthority.IsZero() {
		return fmt.Errorf("%w: %s", ErrFixedSupply, mintKey)
	}
	if !mint.MintAuthority.Equals(authority) {
		return fmt.Errorf("%w: mint authority %s", ErrOwnerMismatch, authority)
	}
	holding, err := p.Account(l, dest)
	if err != nil {
		return err
	}
	if !holding.Mint.Equals(mintKey) {
		return fmt.Errorf("%w: %s", ErrMintMismatch, dest)
	}
	if mint.Supply, err = nativecommon.CheckedAdd(mint.Supply, amount); err != nil {
		return fmt.Errorf("token: supply: %w", err)
	}
	if holding.Amount, err = nativecommon.CheckedAdd(holding.Amount, amount); err != nil {
		return fmt.Errorf("token: balance: %w", err)
	}
	if err := store(l, mintKey, mint, MintSize); err != nil {
		return err
	}
	return store(l, dest, holding, AccountSize)
}

// InitializeAccount allocates a holding account for owner at key.
func (p *Program) InitializeAccount(l state.Ledger, payer, key, mint, owner solana.PublicKey) error {
	if _, err := p.Mint(l, mint); err != nil {
		return err
	}
	if err := system.CreateAccount(l, payer, key, AccountSize, ProgramID); err != nil {
		if errors.Is(err, system.ErrAccountInUse) {
			return fmt.Errorf("%w: %s", ErrAlreadyInUse, key)
		}
		return fmt.Errorf("token: allocate account: %w", err)
	}
	return store(l, key, &Account{Mint: mint, Owner: owner, IsInitialized: true}, AccountSize)
}

// CreateAssociatedAccount returns the associated holding account of wallet
// for mint, allocating it when absent. An existing account is accepted as
// long as it matches the wallet and mint.
func (p *Program) CreateAssociatedAccount(l state.Ledger, payer, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	key, _, err := FindAssociatedAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	exists, err := p.Exists(l, key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if exists {
		holding, err := p.Account(l, key)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if !holding.Mint.Equals(mint) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrMintMismatch, key)
		}
		if !holding.Owner.Equals(wallet) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrOwnerMismatch, key)
		}
		return key, nil
	}
	if err := p.InitializeAccount(l, payer, key, mint, wallet); err != nil {
		return solana.PublicKey{}, err
	}
	return key, nil
}

// Transfer moves amount between two holding accounts of the same mint.
// authority must be the source owner or its approved delegate and must have
// signed; a delegate transfer consumes the delegated allowance.
func (p *Program) Transfer(l state.Ledger, source, dest, authority solana.PublicKey, amount uint64) error {
	src, err := p.Account(l, source)
	if err != nil {
		return err
	}
	dst, err := p.Account(l, dest)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, source, dest)
	}
	switch {
	case src.Owner.Equals(authority):
	case src.HasDelegate() && src.Delegate.Equals(authority):
		if src.DelegatedAmount < amount {
			return fmt.Errorf("%w: delegate allowance %d below %d", ErrInsufficientFunds, src.DelegatedAmount, amount)
		}
		src.DelegatedAmount -= amount
		if src.DelegatedAmount == 0 {
			src.Delegate = solana.PublicKey{}
		}
	default:
		return fmt.Errorf("%w: %s cannot move %s", ErrOwnerMismatch, authority, source)
	}
	if source.Equals(dest) {
		return nil
	}
	if src.Amount, err = nativecommon.CheckedSub(src.Amount, amount); err != nil {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, source)
	}
	if dst.Amount, err = nativecommon.CheckedAdd(dst.Amount, amount); err != nil {
		return fmt.Errorf("token: credit %s: %w", dest, err)
	}
	if err := store(l, source, src, AccountSize); err != nil {
		return err
	}
	if err := store(l, dest, dst, AccountSize); err != nil {
		return err
	}
	l.AppendEvent(events.TokenTransfer{Mint: src.Mint, From: source, To: dest, Authority: authority, Amount: amount}.Event())
	return nil
}

// Approve lets delegate move up to amount out of source. Only the owner may
// approve; a new approval replaces the previous one.
func (p *Program) Approve(l state.Ledger, source, delegate, owner solana.PublicKey, amount uint64) error {
	holding, err := p.Account(l, source)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, source)
	}
	holding.Delegate = delegate
	holding.DelegatedAmount = amount
	return store(l, source, holding, AccountSize)
}

// Revoke clears any delegate approval on source.
func (p *Program) Revoke(l state.Ledger, source, owner solana.PublicKey) error {
	holding, err := p.Account(l, source)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, source)
	}
	holding.Delegate = solana.PublicKey{}
	holding.DelegatedAmount = 0
	return store(l, source, holding, AccountSize)
}

// CloseAccount deletes an empty holding account and returns its lamports to
// destination.
func (p *Program) CloseAccount(l state.Ledger, key, destination, owner solana.PublicKey) error {
	holding, err := p.Account(l, key)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(owner) {
		return fmt.Errorf("%w: %s", ErrOwnerMismatch, key)
	}
	if holding.Amount != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrNonZeroBalance, key, holding.Amount)
	}
	acc, err := l.GetAccount(key)
	if err != nil {
		return err
	}
	if err := system.Debit(l, ProgramID, key, destination, acc.Lamports); err != nil {
		return err
	}
	return l.DeleteAccount(key)
}

// CreateMetadata records descriptive data for mint. updateAuthority must be
// the mint authority.
func (p *Program) CreateMetadata(l state.Ledger, payer, mintKey, updateAuthority solana.PublicKey, name, symbol, uri string, sellerFeeBasisPoints uint16) (solana.PublicKey, error) {
	mint, err := p.Mint(l, mintKey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !mint.MintAuthority.Equals(updateAuthority) {
		return solana.PublicKey{}, fmt.Errorf("%w: update authority %s", ErrOwnerMismatch, updateAuthority)
	}
	if sellerFeeBasisPoints > 10_000 {
		return solana.PublicKey{}, fmt.Errorf("%w: seller fee %d bps", ErrInvalidMetadata, sellerFeeBasisPoints)
	}
	key, _, err := FindMetadataAddress(mintKey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := system.CreateAccount(l, payer, key, MetadataSize, MetadataProgramID); err != nil {
		return solana.PublicKey{}, fmt.Errorf("token: allocate metadata: %w", err)
	}
	data, err := encode(&Metadata{
		Key:                  metadataKey,
		UpdateAuthority:      updateAuthority,
		Mint:                 mintKey,
		Name:                 name,
		Symbol:               symbol,
		URI:                  uri,
		SellerFeeBasisPoints: sellerFeeBasisPoints,
	}, MetadataSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	acc, err := l.GetAccount(key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	acc.Data = data
	return key, l.PutAccount(key, acc)
}

// Metadata loads the metadata record stored at key.
func (p *Program) Metadata(l state.Ledger, key solana.PublicKey) (*Metadata, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(MetadataProgramID) || len(acc.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, key)
	}
	md := new(Metadata)
	if err := decode(acc.Data, md); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidMetadata, key, err)
	}
	if md.Key != metadataKey {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, key)
	}
	return md, nil
}
