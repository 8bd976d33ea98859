package crypto

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PrivateKey is an ed25519 signing key. Its public half is the wallet
// address used throughout the marketplace.
type PrivateKey struct {
	solana.PrivateKey
}

// GeneratePrivateKey returns a fresh random key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromBase58 parses the 64-byte base58 keypair encoding.
func PrivateKeyFromBase58(s string) (*PrivateKey, error) {
	key, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse private key: %w", err)
	}
	return PrivateKeyFromBytes(key)
}

// PrivateKeyFromBytes wraps a 64-byte ed25519 keypair.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("crypto: private key must be 64 bytes, got %d", len(b))
	}
	derived := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(derived, b) {
		return nil, errors.New("crypto: public half does not match the seed")
	}
	return &PrivateKey{solana.PrivateKey(derived)}, nil
}

// Bytes returns the 64-byte keypair.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.PrivateKey...)
}

// PubKey returns the wallet address of the key.
func (k *PrivateKey) PubKey() solana.PublicKey {
	return k.PrivateKey.PublicKey()
}

// --- Request signing ---

// ErrBadSignature is returned when a request signature does not verify.
var ErrBadSignature = errors.New("crypto: signature verification failed")

// RequestPayload is the byte string a client signs for an RPC call:
// method || 0x00 || nonce (u64 big-endian) || params. The nonce binds the
// signature to one use.
func RequestPayload(method string, nonce uint64, params []byte) []byte {
	out := make([]byte, 0, len(method)+9+len(params))
	out = append(out, method...)
	out = append(out, 0)
	out = binary.BigEndian.AppendUint64(out, nonce)
	return append(out, params...)
}

// SignRequest signs method, nonce and the raw params.
func (k *PrivateKey) SignRequest(method string, nonce uint64, params []byte) (solana.Signature, error) {
	return k.PrivateKey.Sign(RequestPayload(method, nonce, params))
}

// VerifyRequest checks that sig is key's signature over method, nonce and
// params.
func VerifyRequest(key solana.PublicKey, sig solana.Signature, method string, nonce uint64, params []byte) error {
	if !key.Verify(RequestPayload(method, nonce, params), sig) {
		return fmt.Errorf("%w: %s", ErrBadSignature, key)
	}
	return nil
}
