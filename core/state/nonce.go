package state

import (
	"errors"
	"fmt"
)

// ErrNonceUsed is returned when a signer presents a nonce at or below the
// last one it used.
var ErrNonceUsed = errors.New("state: nonce already used")

var noncePrefix = []byte("nonce/")

func nonceKey(signer [32]byte) []byte {
	return append(append([]byte{}, noncePrefix...), signer[:]...)
}

// SignerNonce returns the last nonce signer used, 0 when it never signed.
func SignerNonce(l Ledger, signer [32]byte) (uint64, error) {
	var last uint64
	if _, err := l.KVGet(nonceKey(signer), &last); err != nil {
		return 0, err
	}
	return last, nil
}

// UseNonce consumes nonce for signer. Nonces must strictly increase per
// signer, so a request carrying a consumed nonce cannot run twice.
func UseNonce(l Ledger, signer [32]byte, nonce uint64) error {
	last, err := SignerNonce(l, signer)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("%w: %d, last %d", ErrNonceUsed, nonce, last)
	}
	return l.KVPut(nonceKey(signer), nonce)
}
