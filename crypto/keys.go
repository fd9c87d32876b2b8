package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrEmptyKeyPath   = errors.New("crypto: empty key path")
	ErrInvalidAddress = errors.New("crypto: invalid address")
)

// GenerateKeypair returns a fresh ed25519 keypair.
func GenerateKeypair() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	return key, nil
}

// SaveKeygenFile writes key in the keygen JSON format (an array of the 64
// secret key bytes). Parent directories are created with 0700 and the file
// is replaced atomically with 0600 permissions.
func SaveKeygenFile(path string, key solana.PrivateKey) error {
	if path == "" {
		return ErrEmptyKeyPath
	}
	if len(key) != 64 {
		return errors.New("crypto: private key must be 64 bytes")
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "keypair-")
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
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadKeygenFile reads a keypair written by SaveKeygenFile or solana-keygen.
func LoadKeygenFile(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, ErrEmptyKeyPath
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: load %s: %w", path, err)
	}
	return key, nil
}

// EnsureKeygenFile loads the keypair at path, generating and saving one when
// the file does not exist.
func EnsureKeygenFile(path string) (key solana.PrivateKey, created bool, err error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		key, err := GenerateKeypair()
		if err != nil {
			return nil, false, err
		}
		if err := SaveKeygenFile(path, key); err != nil {
			return nil, false, err
		}
		return key, true, nil
	} else if err != nil {
		return nil, false, err
	}
	key, err = LoadKeygenFile(path)
	return key, false, err
}
