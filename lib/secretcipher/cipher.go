// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secretcipher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/bureau-foundation/passvault/lib/secret"
)

// KeySize is the length in bytes of both the configured cipher key and
// the derived AEAD key.
const KeySize = chacha20poly1305.KeySize

// BlobVersion is the first byte of every blob produced by Encrypt.
const BlobVersion byte = 0x01

// Overhead is the number of bytes Encrypt adds to the plaintext:
// version, nonce and Poly1305 tag.
const Overhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfo separates the secret-encryption key from anything else that
// might ever be derived from the same configured bytes. Changing it
// makes every stored secret unreadable.
var hkdfInfo = []byte("passvault.secret.xchacha20poly1305.v1")

var (
	// ErrDecryption is the only error Decrypt returns.
	ErrDecryption = errors.New("secretcipher: unable to decrypt secret")

	// ErrInvalidKey is returned by ParseKey and NewKey.
	ErrInvalidKey = errors.New("secretcipher: invalid cipher key")
)

// Key is the derived secret-encryption key. It is immutable after
// construction and safe for concurrent use.
type Key struct {
	derived *secret.Buffer
}

// ParseKey decodes a base64 CIPHER_KEY (standard or URL-safe
// alphabet, padded or not) and derives the encryption key from it.
func ParseKey(encoded string) (*Key, error) {
	raw, err := secret.DecodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer raw.Close()
	return NewKey(raw.Bytes())
}

// NewKey derives a Key from exactly KeySize bytes of input key
// material. The input is borrowed, not retained.
func NewKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(material), KeySize)
	}

	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, hkdfInfo), derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("secretcipher: deriving key: %w", err)
	}
	buffer, err := secret.NewFromBytes(derived)
	if err != nil {
		return nil, fmt.Errorf("secretcipher: protecting key: %w", err)
	}
	return &Key{derived: buffer}, nil
}

// GenerateKey returns a fresh random CIPHER_KEY value in standard
// base64.
func GenerateKey() (string, error) {
	material := make([]byte, KeySize)
	defer secret.Zero(material)
	if _, err := rand.Read(material); err != nil {
		return "", fmt.Errorf("secretcipher: generating key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(material), nil
}

// Close releases the key memory. A closed Key panics on use.
func (k *Key) Close() error {
	return k.derived.Close()
}

// Encrypt seals plaintext under key with a fresh random nonce. Two
// calls with the same arguments never return equal blobs.
func Encrypt(plaintext []byte, key *Key) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.derived.Bytes())
	if err != nil {
		return nil, fmt.Errorf("secretcipher: creating cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("secretcipher: generating nonce: %w", err)
	}

	blob := make([]byte, 0, len(plaintext)+Overhead)
	blob = append(blob, BlobVersion)
	blob = append(blob, nonce[:]...)
	return aead.Seal(blob, nonce[:], plaintext, []byte{BlobVersion}), nil
}

// Decrypt opens a blob produced by Encrypt under the same key. Every
// failure is ErrDecryption.
func Decrypt(blob []byte, key *Key) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key.derived.Bytes())
	if err != nil {
		return nil, ErrDecryption
	}

	if len(blob) < Overhead {
		// Authenticate a zero blob of minimum size so short input is
		// rejected by the same code path as a bad tag.
		var dummy [Overhead]byte
		aead.Open(nil, dummy[1:1+chacha20poly1305.NonceSizeX], dummy[1+chacha20poly1305.NonceSizeX:], dummy[:1])
		return nil, ErrDecryption
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	sealed := blob[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, sealed, blob[:1])
	if err != nil {
		return nil, ErrDecryption
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// EncodeString renders a blob as unpadded URL-safe base64 for text
// boundaries.
func EncodeString(blob []byte) string {
	return base64.RawURLEncoding.EncodeToString(blob)
}

// DecodeString reverses EncodeString. Malformed text is reported as
// ErrDecryption, since the result is only ever fed to Decrypt.
func DecodeString(text string) ([]byte, error) {
	blob, err := base64.RawURLEncoding.Strict().DecodeString(text)
	if err != nil {
		return nil, ErrDecryption
	}
	return blob, nil
}
