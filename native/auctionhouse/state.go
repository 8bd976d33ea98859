package auctionhouse

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

var (
	auctionHouseDiscriminator = discriminator("AuctionHouse")
	auctioneerDiscriminator   = discriminator("Auctioneer")
)

func discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// AuctionHouse is the instance record of one marketplace.
type AuctionHouse struct {
	FeeAccount                    solana.PublicKey
	Treasury                      solana.PublicKey
	TreasuryWithdrawalDestination solana.PublicKey
	FeeWithdrawalDestination      solana.PublicKey
	TreasuryMint                  solana.PublicKey
	Authority                     solana.PublicKey
	Creator                       solana.PublicKey
	Bump                          uint8
	TreasuryBump                  uint8
	FeePayerBump                  uint8
	SellerFeeBasisPoints          uint16
	CanChangeSalePrice            bool
	EscrowPaymentBump             uint8
	HasAuctioneer                 bool
	AuctioneerAddress             solana.PublicKey
}

// IsNative reports whether the instance settles in native lamports.
func (ah *AuctionHouse) IsNative() bool {
	return ah.TreasuryMint.Equals(nativeMint)
}

// Auctioneer binds an auctioneer authority to an instance.
type Auctioneer struct {
	AuctioneerAuthority solana.PublicKey
	AuctionHouse        solana.PublicKey
	Bump                uint8
}

func encodeRecord(disc [8]byte, v interface{}, size int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("auctionhouse: encoded %T is %d bytes, limit %d", v, buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func decodeRecord(disc [8]byte, data []byte, v interface{}) error {
	if len(data) < len(disc) || !bytes.Equal(data[:len(disc)], disc[:]) {
		return ErrUninitializedAccount
	}
	if err := bin.NewBorshDecoder(data[len(disc):]).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrUninitializedAccount, err)
	}
	return nil
}

// LoadAuctionHouse reads the instance record stored at key.
func LoadAuctionHouse(l state.Ledger, key solana.PublicKey) (*AuctionHouse, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return nil, fail(ErrUninitializedAccount, "auction house %s", key)
	}
	ah := new(AuctionHouse)
	if err := decodeRecord(auctionHouseDiscriminator, acc.Data, ah); err != nil {
		return nil, fmt.Errorf("auction house %s: %w", key, err)
	}
	return ah, nil
}

func storeAuctionHouse(l state.Ledger, key solana.PublicKey, ah *AuctionHouse) error {
	return storeRecord(l, key, auctionHouseDiscriminator, ah, AuctionHouseSize)
}

// LoadAuctioneer reads the delegated authority record stored at key.
func LoadAuctioneer(l state.Ledger, key solana.PublicKey) (*Auctioneer, error) {
	acc, err := l.GetAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return nil, fail(ErrInvalidAuctioneer, "no auctioneer record at %s", key)
	}
	rec := new(Auctioneer)
	if err := decodeRecord(auctioneerDiscriminator, acc.Data, rec); err != nil {
		return nil, fmt.Errorf("auctioneer %s: %w", key, err)
	}
	return rec, nil
}

func storeAuctioneer(l state.Ledger, key solana.PublicKey, rec *Auctioneer) error {
	return storeRecord(l, key, auctioneerDiscriminator, rec, AuctioneerSize)
}

func storeRecord(l state.Ledger, key solana.PublicKey, disc [8]byte, v interface{}, size int) error {
	acc, err := l.GetAccount(key)
	if err != nil {
		return err
	}
	if acc == nil || !acc.IsOwnedBy(ProgramID) {
		return fail(ErrUninitializedAccount, "%s", key)
	}
	data, err := encodeRecord(disc, v, size)
	if err != nil {
		return err
	}
	acc.Data = data
	return l.PutAccount(key, acc)
}
