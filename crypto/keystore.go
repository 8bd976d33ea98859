package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/gagliardetto/solana-go"
)

const keystoreVersion = 1

// scrypt cost of new keystore files.
var (
	scryptN = keystore.StandardScryptN
	scryptP = keystore.StandardScryptP
)

type keystoreFile struct {
	Version   int                 `json:"version"`
	PublicKey string              `json:"publicKey"`
	Crypto    keystore.CryptoJSON `json:"crypto"`
}

// SaveToKeystore encrypts key with passphrase and writes it to path. The
// parent directory is created with 0700 permissions.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	if key == nil {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errors.New("crypto: empty keystore path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	sealed, err := keystore.EncryptDataV3(key.Bytes(), []byte(passphrase), scryptN, scryptP)
	if err != nil {
		return fmt.Errorf("crypto: encrypt key: %w", err)
	}
	raw, err := json.MarshalIndent(keystoreFile{
		Version:   keystoreVersion,
		PublicKey: key.PubKey().String(),
		Crypto:    sealed,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "keystore-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// LoadFromKeystore decrypts a keystore file written by SaveToKeystore. A
// plain keypair file (a JSON array of 64 bytes) is accepted as well and
// needs no passphrase.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plain []byte
	if json.Unmarshal(raw, &plain) == nil && len(plain) == 64 {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
		if err != nil {
			return nil, err
		}
		return &PrivateKey{key}, nil
	}

	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("crypto: parse keystore %s: %w", path, err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", file.Version)
	}
	secret, err := keystore.DecryptDataV3(file.Crypto, passphrase)
	if err != nil {
		return nil, err
	}
	key, err := PrivateKeyFromBytes(secret)
	if err != nil {
		return nil, err
	}
	if file.PublicKey != "" && file.PublicKey != key.PubKey().String() {
		return nil, fmt.Errorf("crypto: keystore %s names %s but holds %s", path, file.PublicKey, key.PubKey())
	}
	return key, nil
}
