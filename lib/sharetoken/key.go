// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharetoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/passvault/lib/secret"
)

// MinSigningKeyLength is the shortest SIGNING_KEY accepted, in bytes.
const MinSigningKeyLength = 16

// hkdfInfo is the HKDF domain string for the Ed25519 seed. Changing it
// invalidates every outstanding share link.
var hkdfInfo = []byte("passvault.sharetoken.v1")

// ErrInvalidSigningKey is returned for an empty or too-short
// SIGNING_KEY.
var ErrInvalidSigningKey = errors.New("sharetoken: invalid signing key")

// SigningKey is the Ed25519 keypair derived from SIGNING_KEY. The
// private half lives in a secret.Buffer. A SigningKey is immutable and
// safe for concurrent use.
type SigningKey struct {
	private *secret.Buffer
	public  ed25519.PublicKey
}

// NewSigningKey derives a SigningKey from the configured secret. The
// input is borrowed, not retained.
func NewSigningKey(material []byte) (*SigningKey, error) {
	if len(material) < MinSigningKeyLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidSigningKey, len(material), MinSigningKeyLength)
	}

	seed := make([]byte, ed25519.SeedSize)
	defer secret.Zero(seed)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, hkdfInfo), seed); err != nil {
		return nil, fmt.Errorf("sharetoken: deriving seed: %w", err)
	}

	privateKey := ed25519.NewKeyFromSeed(seed)
	public := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(public, privateKey.Public().(ed25519.PublicKey))

	private, err := secret.NewFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("sharetoken: protecting private key: %w", err)
	}
	return &SigningKey{private: private, public: public}, nil
}

// ParseSigningKey is NewSigningKey over the raw bytes of a string
// value such as the SIGNING_KEY environment variable.
func ParseSigningKey(value string) (*SigningKey, error) {
	return NewSigningKey([]byte(value))
}

// GenerateSigningKey returns a fresh random SIGNING_KEY value: 32
// random bytes in unpadded URL-safe base64.
func GenerateSigningKey() (string, error) {
	material := make([]byte, 32)
	defer secret.Zero(material)
	if _, err := rand.Read(material); err != nil {
		return "", fmt.Errorf("sharetoken: generating signing key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(material), nil
}

// Close releases the private key memory.
func (k *SigningKey) Close() error {
	return k.private.Close()
}

func (k *SigningKey) sign(message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(k.private.Bytes()), message)
}

func (k *SigningKey) verify(message, signature []byte) bool {
	return ed25519.Verify(k.public, message, signature)
}
