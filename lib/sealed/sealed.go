// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/passvault/lib/secret"
)

// Keypair holds an age x25519 keypair. The caller must Close it.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... string. Never log it.
	PrivateKey *secret.Buffer

	// PublicKey is the age1... recipient string.
	PublicKey string
}

// Close releases the private key memory. Safe to call twice.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair returns a new x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating keypair: %w", err)
	}
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ParseRecipients parses age1... public keys. At least one is
// required.
func ParseRecipients(publicKeys []string) ([]age.Recipient, error) {
	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("sealed: at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(publicKeys))
	for _, key := range publicKeys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("sealed: parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// Seal encrypts plaintext to every recipient and returns an armored
// age file.
func Seal(plaintext []byte, publicKeys []string) ([]byte, error) {
	recipients, err := ParseRecipients(publicKeys)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	armored := armor.NewWriter(&output)
	writer, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing armor: %w", err)
	}
	return output.Bytes(), nil
}

// Open decrypts an armored or binary age file with privateKey. The
// key is borrowed. The caller must Close the returned buffer.
func Open(ciphertext []byte, privateKey *secret.Buffer) (*secret.Buffer, error) {
	identity, err := age.ParseX25519Identity(string(privateKey.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing private key: %w", err)
	}

	var source io.Reader = bytes.NewReader(ciphertext)
	buffered := bufio.NewReader(source)
	if start, _ := buffered.Peek(len(armor.Header)); string(start) == armor.Header {
		source = armor.NewReader(buffered)
	} else {
		source = buffered
	}

	reader, err := age.Decrypt(source, identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed: file holds no data")
	}
	return secret.NewFromBytes(plaintext)
}

// ParsePrivateKey validates an AGE-SECRET-KEY-1... string and moves
// it into protected memory.
func ParsePrivateKey(text string) (*secret.Buffer, error) {
	text = strings.TrimSpace(text)
	if _, err := age.ParseX25519Identity(text); err != nil {
		return nil, fmt.Errorf("sealed: invalid private key: %w", err)
	}
	return secret.NewFromBytes([]byte(text))
}
