// Package token keeps fungible and non-fungible asset balances in holding
// accounts, the way the marketplace's asset-transfer collaborator expects:
// mints, holding accounts with an optional delegate, associated holding
// accounts and asset metadata.
package token

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	// ProgramID owns mints and holding accounts.
	ProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	// AssociatedProgramID derives the canonical holding account of a wallet.
	AssociatedProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	// MetadataProgramID owns asset metadata records.
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	// NativeMint identifies the native lamport asset when used as a payment
	// mint.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	MintSize     = 82
	AccountSize  = 165
	MetadataSize = 679

	metadataSeed = "metadata"
	metadataKey  = uint8(4)
)

// Mint describes an asset class.
type Mint struct {
	MintAuthority solana.PublicKey
	Supply        uint64
	Decimals      uint8
	IsInitialized bool
}

// Account is a holding account: a balance of one mint controlled by Owner and,
// up to DelegatedAmount, by Delegate.
type Account struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        solana.PublicKey
	DelegatedAmount uint64
	IsInitialized   bool
}

// HasDelegate reports whether a delegate is approved.
func (a *Account) HasDelegate() bool {
	return a != nil && !a.Delegate.IsZero()
}

// Metadata binds descriptive data to a mint.
type Metadata struct {
	Key                  uint8
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

func encode(v interface{}, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("token: encoded %T is %d bytes, limit %d", v, buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func decode(data []byte, v interface{}) error {
	return bin.NewBorshDecoder(data).Decode(v)
}

// FindAssociatedAddress derives the canonical holding account of wallet for
// mint.
func FindAssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{wallet[:], ProgramID[:], mint[:]}, AssociatedProgramID)
}

// FindMetadataAddress derives the metadata record address of mint.
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(metadataSeed), MetadataProgramID[:], mint[:]}, MetadataProgramID)
}
