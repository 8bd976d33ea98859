package auctionhouse

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	nativecommon "auctionhouse/native/common"
	"auctionhouse/native/token"
)

var (
	nativeMint     = token.NativeMint
	findAssociated = token.FindAssociatedAddress
)

// AssetProgram is the asset-transfer collaborator: holding accounts, their
// delegates and the metadata bound to a mint.
type AssetProgram interface {
	Account(l state.Ledger, key solana.PublicKey) (*token.Account, error)
	Exists(l state.Ledger, key solana.PublicKey) (bool, error)
	Mint(l state.Ledger, key solana.PublicKey) (*token.Mint, error)
	InitializeAccount(l state.Ledger, payer, key, mint, owner solana.PublicKey) error
	CreateAssociatedAccount(l state.Ledger, payer, wallet, mint solana.PublicKey) (solana.PublicKey, error)
	Transfer(l state.Ledger, source, dest, authority solana.PublicKey, amount uint64) error
	Approve(l state.Ledger, source, delegate, owner solana.PublicKey, amount uint64) error
	Revoke(l state.Ledger, source, owner solana.PublicKey) error
	CloseAccount(l state.Ledger, key, destination, owner solana.PublicKey) error
	Metadata(l state.Ledger, key solana.PublicKey) (*token.Metadata, error)
}

// Call carries what the host verified about an invocation: the keys whose
// signatures were checked and, on the delegated path, the auctioneer
// authority the call claims to act for.
type Call struct {
	Signers    []solana.PublicKey
	Auctioneer *solana.PublicKey
}

// Signed reports whether key signed the call.
func (c Call) Signed(key solana.PublicKey) bool {
	for _, s := range c.Signers {
		if s.Equals(key) {
			return true
		}
	}
	return false
}

// Delegated reports whether the call claims to come through an auctioneer.
func (c Call) Delegated() bool { return c.Auctioneer != nil }

// Result summarises the accounts an operation touched.
type Result struct {
	AuctionHouse solana.PublicKey `json:"auctionHouse"`
	Auctioneer   solana.PublicKey `json:"auctioneer"`
	Escrow       solana.PublicKey `json:"escrow"`
	TradeState   solana.PublicKey `json:"tradeState"`
	Payer        solana.PublicKey `json:"payer"`
	Bump         uint8            `json:"bump"`
	Created      bool             `json:"created"`
	Funded       uint64           `json:"funded"`
	Price        uint64           `json:"price"`
	Fee          uint64           `json:"fee"`
	Net          uint64           `json:"net"`
}

// Engine executes marketplace operations.
type Engine struct {
	assets AssetProgram
	pauses nativecommon.PauseView
}

// NewEngine creates an engine that moves assets through the supplied
// program.
func NewEngine(assets AssetProgram) *Engine {
	return &Engine{assets: assets}
}

// SetPauses configures the pause view consulted before every operation.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

func (e *Engine) guard() error {
	if e == nil || e.assets == nil {
		return errors.New("auctionhouse engine: asset program not configured")
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return fmt.Errorf("%w: %v", ErrPaused, err)
	}
	return nil
}

// instance is an instance record together with the authority resolved for
// the current call.
type instance struct {
	key  solana.PublicKey
	ah   *AuctionHouse
	auth Authority
}

func (i *instance) isNative() bool { return i.ah.IsNative() }

// open loads the instance and resolves which authority governs the call.
// walletDirect permits a direct call on a delegated instance.
func (e *Engine) open(l state.Ledger, key solana.PublicKey, call Call, walletDirect bool) (*instance, error) {
	if err := e.guard(); err != nil {
		return nil, err
	}
	ah, err := LoadAuctionHouse(l, key)
	if err != nil {
		return nil, err
	}
	auth, err := ResolveAuthority(l, key, ah, call, walletDirect)
	if err != nil {
		return nil, err
	}
	return &instance{key: key, ah: ah, auth: auth}, nil
}

// feePayer picks the account that funds rent for the call: the fee account
// when the instance authority or a delegated auctioneer signs, otherwise the
// first candidate wallet that signed.
func feePayer(inst *instance, call Call, wallets ...solana.PublicKey) (solana.PublicKey, error) {
	if call.Signed(inst.ah.Authority) {
		return inst.ah.FeeAccount, nil
	}
	for _, w := range wallets {
		if call.Signed(w) {
			return w, nil
		}
	}
	if inst.auth.Kind == AuthorityDelegated && call.Signed(inst.auth.Key) {
		return inst.ah.FeeAccount, nil
	}
	return solana.PublicKey{}, ErrNoPayerPresent
}

// checkMetadata asserts that metadataKey is the metadata record of mint.
func (e *Engine) checkMetadata(l state.Ledger, metadataKey, mint solana.PublicKey) error {
	expected, _, err := token.FindMetadataAddress(mint)
	if err != nil {
		return err
	}
	if !expected.Equals(metadataKey) {
		return fail(ErrInvalidMetadata, "metadata %s is not derived from mint %s", metadataKey, mint)
	}
	md, err := e.assets.Metadata(l, metadataKey)
	if err != nil {
		return fail(ErrInvalidMetadata, "%v", err)
	}
	if !md.Mint.Equals(mint) {
		return fail(ErrInvalidMetadata, "metadata %s describes %s", metadataKey, md.Mint)
	}
	return nil
}

// holding loads a holding account, mapping absence to ErrUninitializedAccount.
func (e *Engine) holding(l state.Ledger, key solana.PublicKey) (*token.Account, error) {
	acc, err := e.assets.Account(l, key)
	if err != nil {
		if errors.Is(err, token.ErrUninitialized) {
			return nil, fail(ErrUninitializedAccount, "holding account %s", key)
		}
		return nil, err
	}
	return acc, nil
}

func checkBump(supplied uint8, find func() (solana.PublicKey, uint8, error)) (solana.PublicKey, error) {
	addr, canonical, err := find()
	if err != nil {
		return solana.PublicKey{}, err
	}
	if supplied != canonical {
		return solana.PublicKey{}, fail(ErrBumpSeedNotInHashMap, "bump %d, canonical %d", supplied, canonical)
	}
	return addr, nil
}
