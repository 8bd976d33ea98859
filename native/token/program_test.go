package token

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/system"
	"auctionhouse/storage"
	"auctionhouse/storage/trie"
)

func newLedger(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	if err != nil {
		t.Fatalf("new trie: %v", err)
	}
	return state.NewManager(tr)
}

func funded(t *testing.T, l state.Ledger) solana.PublicKey {
	t.Helper()
	key := solana.NewWallet().PublicKey()
	if err := system.Airdrop(l, key, 1_000_000_000); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	return key
}

type fixture struct {
	l         *state.Manager
	p         *Program
	payer     solana.PublicKey
	authority solana.PublicKey
	mint      solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := newLedger(t)
	f := &fixture{l: l, p: NewProgram(), payer: funded(t, l), authority: solana.NewWallet().PublicKey()}
	f.mint = solana.NewWallet().PublicKey()
	if err := f.p.InitializeMint(l, f.payer, f.mint, f.authority, 0); err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	return f
}

func (f *fixture) holding(t *testing.T, owner solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	key, err := f.p.CreateAssociatedAccount(f.l, f.payer, owner, f.mint)
	if err != nil {
		t.Fatalf("create associated account: %v", err)
	}
	if amount > 0 {
		if err := f.p.MintTo(f.l, f.mint, key, f.authority, amount); err != nil {
			t.Fatalf("mint to: %v", err)
		}
	}
	return key
}

func TestMintAndAccountAreRentExempt(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()
	key := f.holding(t, owner, 1)

	rent := f.l.Rent()
	for _, tc := range []struct {
		key  solana.PublicKey
		size int
	}{{f.mint, MintSize}, {key, AccountSize}} {
		acc, err := f.l.GetAccount(tc.key)
		if err != nil || acc == nil {
			t.Fatalf("load %s: %v", tc.key, err)
		}
		if acc.Lamports != rent.MinimumBalance(tc.size) {
			t.Fatalf("expected %d lamports at %s, got %d", rent.MinimumBalance(tc.size), tc.key, acc.Lamports)
		}
		if len(acc.Data) != tc.size {
			t.Fatalf("expected %d bytes, got %d", tc.size, len(acc.Data))
		}
	}
	mint, err := f.p.Mint(f.l, f.mint)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if mint.Supply != 1 {
		t.Fatalf("expected supply 1, got %d", mint.Supply)
	}
}

func TestCreateAssociatedAccountIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()
	first := f.holding(t, owner, 5)
	second, err := f.p.CreateAssociatedAccount(f.l, f.payer, owner, f.mint)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !first.Equals(second) {
		t.Fatalf("expected the same address, got %s and %s", first, second)
	}
	holding, err := f.p.Account(f.l, second)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if holding.Amount != 5 {
		t.Fatalf("expected balance to survive, got %d", holding.Amount)
	}
	expected, _, err := FindAssociatedAddress(owner, f.mint)
	if err != nil || !expected.Equals(first) {
		t.Fatalf("associated address mismatch: %s vs %s (%v)", expected, first, err)
	}
}

func TestTransferByOwnerAndDelegate(t *testing.T) {
	f := newFixture(t)
	seller := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()
	delegate := solana.NewWallet().PublicKey()
	src := f.holding(t, seller, 10)
	dst := f.holding(t, buyer, 0)

	if err := f.p.Transfer(f.l, src, dst, buyer, 1); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected owner mismatch, got %v", err)
	}
	if err := f.p.Transfer(f.l, src, dst, seller, 4); err != nil {
		t.Fatalf("owner transfer: %v", err)
	}
	if err := f.p.Approve(f.l, src, delegate, seller, 3); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.p.Transfer(f.l, src, dst, delegate, 4); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected allowance failure, got %v", err)
	}
	if err := f.p.Transfer(f.l, src, dst, delegate, 3); err != nil {
		t.Fatalf("delegate transfer: %v", err)
	}
	holding, err := f.p.Account(f.l, src)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if holding.Amount != 3 || holding.HasDelegate() || holding.DelegatedAmount != 0 {
		t.Fatalf("unexpected source after delegate transfer: %+v", holding)
	}
	if err := f.p.Transfer(f.l, src, dst, seller, 4); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	received, err := f.p.Account(f.l, dst)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if received.Amount != 7 {
		t.Fatalf("expected buyer to hold 7, got %d", received.Amount)
	}
}

func TestRevokeClearsDelegate(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()
	delegate := solana.NewWallet().PublicKey()
	src := f.holding(t, owner, 1)
	if err := f.p.Approve(f.l, src, delegate, owner, 1); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.p.Revoke(f.l, src, delegate); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected only the owner to revoke, got %v", err)
	}
	if err := f.p.Revoke(f.l, src, owner); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	holding, err := f.p.Account(f.l, src)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if holding.HasDelegate() {
		t.Fatalf("expected delegate to be cleared")
	}
}

func TestCloseAccountReturnsRent(t *testing.T) {
	f := newFixture(t)
	owner := solana.NewWallet().PublicKey()
	src := f.holding(t, owner, 1)
	if err := f.p.CloseAccount(f.l, src, owner, owner); !errors.Is(err, ErrNonZeroBalance) {
		t.Fatalf("expected non-zero balance error, got %v", err)
	}
	sink := f.holding(t, solana.NewWallet().PublicKey(), 0)
	if err := f.p.Transfer(f.l, src, sink, owner, 1); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := f.p.CloseAccount(f.l, src, owner, owner); err != nil {
		t.Fatalf("close: %v", err)
	}
	acc, err := f.l.GetAccount(src)
	if err != nil || acc != nil {
		t.Fatalf("expected account to be gone, got %+v (%v)", acc, err)
	}
	balance, err := system.Balance(f.l, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != f.l.Rent().MinimumBalance(AccountSize) {
		t.Fatalf("expected rent refund, got %d", balance)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	f := newFixture(t)
	key, err := f.p.CreateMetadata(f.l, f.payer, f.mint, f.authority, "Lot 7", "LOT", "https://example.com/7.json", 500)
	if err != nil {
		t.Fatalf("create metadata: %v", err)
	}
	expected, _, _ := FindMetadataAddress(f.mint)
	if !expected.Equals(key) {
		t.Fatalf("metadata address mismatch")
	}
	md, err := f.p.Metadata(f.l, key)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if !md.Mint.Equals(f.mint) || md.Name != "Lot 7" || md.SellerFeeBasisPoints != 500 {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if _, err := f.p.Metadata(f.l, f.mint); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected invalid metadata for a mint account, got %v", err)
	}
	if _, err := f.p.CreateMetadata(f.l, f.payer, f.mint, f.payer, "x", "x", "x", 0); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected update authority check, got %v", err)
	}
}
