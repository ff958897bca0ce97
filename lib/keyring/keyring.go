// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keyring

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/passvault/lib/secret"
	"github.com/bureau-foundation/passvault/lib/secretcipher"
	"github.com/bureau-foundation/passvault/lib/sharetoken"
)

// Names of the variables that carry key material.
const (
	CipherKeyName  = "CIPHER_KEY"
	SigningKeyName = "SIGNING_KEY"
)

// Session cookie key sizes: an HMAC-SHA256 key and an AES-256 key.
const (
	sessionHashKeySize  = 64
	sessionBlockKeySize = 32
)

var (
	sessionHashInfo  = []byte("passvault.session.hash.v1")
	sessionBlockInfo = []byte("passvault.session.block.v1")
)

// KeyLoadError reports which key failed to load and why.
type KeyLoadError struct {
	Name string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("keyring: loading %s: %v", e.Name, e.Err)
}

func (e *KeyLoadError) Unwrap() error { return e.Err }

// Keyring holds every key derived from configuration.
type Keyring struct {
	cipher  *secretcipher.Key
	signing *sharetoken.SigningKey

	sessionHash  *secret.Buffer
	sessionBlock *secret.Buffer
}

// Load validates and loads both keys. cipherKey is base64 encoding of
// 32 random bytes. signingKey is an opaque string of at least
// sharetoken.MinSigningKeyLength bytes.
func Load(cipherKey, signingKey string) (*Keyring, error) {
	if strings.TrimSpace(cipherKey) == "" {
		return nil, &KeyLoadError{Name: CipherKeyName, Err: errors.New("not set")}
	}
	if signingKey == "" {
		return nil, &KeyLoadError{Name: SigningKeyName, Err: errors.New("not set")}
	}

	cipher, err := secretcipher.ParseKey(cipherKey)
	if err != nil {
		return nil, &KeyLoadError{Name: CipherKeyName, Err: err}
	}

	signing, err := sharetoken.ParseSigningKey(signingKey)
	if err != nil {
		cipher.Close()
		return nil, &KeyLoadError{Name: SigningKeyName, Err: err}
	}

	material := []byte(signingKey)
	defer secret.Zero(material)

	sessionHash, err := derive(material, sessionHashInfo, sessionHashKeySize)
	if err != nil {
		cipher.Close()
		signing.Close()
		return nil, &KeyLoadError{Name: SigningKeyName, Err: err}
	}
	sessionBlock, err := derive(material, sessionBlockInfo, sessionBlockKeySize)
	if err != nil {
		cipher.Close()
		signing.Close()
		sessionHash.Close()
		return nil, &KeyLoadError{Name: SigningKeyName, Err: err}
	}

	return &Keyring{
		cipher:       cipher,
		signing:      signing,
		sessionHash:  sessionHash,
		sessionBlock: sessionBlock,
	}, nil
}

func derive(material, info []byte, size int) (*secret.Buffer, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, info), out); err != nil {
		secret.Zero(out)
		return nil, fmt.Errorf("deriving %s: %w", info, err)
	}
	return secret.NewFromBytes(out)
}

// CipherKey returns the record encryption key.
func (k *Keyring) CipherKey() *secretcipher.Key { return k.cipher }

// SigningKey returns the share-token signing key.
func (k *Keyring) SigningKey() *sharetoken.SigningKey { return k.signing }

// SessionKeys returns copies of the owner session cookie keys: a
// 64-byte authentication key and a 32-byte encryption key.
func (k *Keyring) SessionKeys() (hashKey, blockKey []byte) {
	return append([]byte(nil), k.sessionHash.Bytes()...),
		append([]byte(nil), k.sessionBlock.Bytes()...)
}

// Close releases all key memory. The Keyring must not be used after.
func (k *Keyring) Close() error {
	return errors.Join(
		k.cipher.Close(),
		k.signing.Close(),
		k.sessionHash.Close(),
		k.sessionBlock.Close(),
	)
}

// Generated is a fresh pair of key values ready for the environment.
type Generated struct {
	CipherKey  string
	SigningKey string
}

// Generate returns new random values for CIPHER_KEY and SIGNING_KEY.
func Generate() (Generated, error) {
	cipherKey, err := secretcipher.GenerateKey()
	if err != nil {
		return Generated{}, err
	}
	signingKey, err := sharetoken.GenerateSigningKey()
	if err != nil {
		return Generated{}, err
	}
	return Generated{CipherKey: cipherKey, SigningKey: signingKey}, nil
}
