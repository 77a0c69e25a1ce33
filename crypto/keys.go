package crypto

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PrivateKey is an ed25519 signing key.
type PrivateKey struct {
	solana.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the 64-byte seed||public key encoding.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.PrivateKey...)
}

func (k *PrivateKey) Address() solana.PublicKey {
	return k.PrivateKey.PublicKey()
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("crypto: private key must be 64 bytes, got %d", len(b))
	}
	derived := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !bytes.Equal(derived, b) {
		return nil, errors.New("crypto: public half does not match seed")
	}
	return &PrivateKey{solana.PrivateKey(derived)}, nil
}

// ParseAddress decodes a base58 identity.
func ParseAddress(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, errors.New("crypto: empty address")
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("crypto: invalid address %q: %w", s, err)
	}
	return key, nil
}
