// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secretcipher

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// testKey returns a Key built from a fixed 32-byte pattern so failures
// are reproducible.
func testKey(t *testing.T, seed byte) *Key {
	t.Helper()
	material := make([]byte, KeySize)
	for index := range material {
		material[index] = seed + byte(index)
	}
	key, err := NewKey(material)
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	t.Cleanup(func() { key.Close() })
	return key
}

func TestRoundTripAllLengths(t *testing.T) {
	key := testKey(t, 0x01)

	for length := 0; length <= 300; length++ {
		plaintext := bytes.Repeat([]byte{byte(length)}, length)
		blob, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("Encrypt(len=%d): %v", length, err)
		}
		if len(blob) != length+Overhead {
			t.Fatalf("len(blob) = %d, want %d", len(blob), length+Overhead)
		}
		if blob[0] != BlobVersion {
			t.Fatalf("blob version = %#x, want %#x", blob[0], BlobVersion)
		}
		decrypted, err := Decrypt(blob, key)
		if err != nil {
			t.Fatalf("Decrypt(len=%d): %v", length, err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Fatalf("round trip mismatch at len=%d", length)
		}
	}
}

func TestEmptyPlaintextDecryptsToEmptySlice(t *testing.T) {
	key := testKey(t, 0x01)
	blob, err := Encrypt(nil, key)
	if err != nil {
		t.Fatal(err)
	}
	decrypted, err := Decrypt(blob, key)
	if err != nil {
		t.Fatal(err)
	}
	if decrypted == nil || len(decrypted) != 0 {
		t.Errorf("Decrypt(empty) = %#v, want non-nil empty slice", decrypted)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	key := testKey(t, 0x01)
	plaintext := []byte("p@ss!")

	seen := make(map[string]bool)
	for range 100 {
		blob, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatal(err)
		}
		if seen[string(blob)] {
			t.Fatal("Encrypt produced the same blob twice")
		}
		seen[string(blob)] = true
		if bytes.Contains(blob, plaintext) {
			t.Fatal("blob contains the plaintext")
		}
	}
}

func TestEveryBitFlipFails(t *testing.T) {
	key := testKey(t, 0x01)
	blob, err := Encrypt([]byte("hunter2"), key)
	if err != nil {
		t.Fatal(err)
	}

	for index := range blob {
		for bit := range 8 {
			tampered := bytes.Clone(blob)
			tampered[index] ^= 1 << bit
			plaintext, err := Decrypt(tampered, key)
			if !errors.Is(err, ErrDecryption) {
				t.Fatalf("flip byte %d bit %d: err = %v, want ErrDecryption", index, bit, err)
			}
			if plaintext != nil {
				t.Fatalf("flip byte %d bit %d: returned plaintext %q", index, bit, plaintext)
			}
		}
	}
}

func TestCrossKeyFails(t *testing.T) {
	first := testKey(t, 0x01)
	second := testKey(t, 0x02)

	blob, err := Encrypt([]byte("p@ss!"), first)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(blob, second); !errors.Is(err, ErrDecryption) {
		t.Errorf("Decrypt under another key: err = %v, want ErrDecryption", err)
	}
}

func TestMalformedBlobsFailOpaquely(t *testing.T) {
	key := testKey(t, 0x01)
	blob, err := Encrypt([]byte("p@ss!"), key)
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string][]byte{
		"nil":             nil,
		"empty":           {},
		"version only":    {BlobVersion},
		"one short":       blob[:Overhead-1],
		"header only":     blob[:Overhead],
		"truncated tag":   blob[:len(blob)-1],
		"extended":        append(bytes.Clone(blob), 0x00),
		"wrong version":   append([]byte{0x02}, blob[1:]...),
		"random garbage":  bytes.Repeat([]byte{0xa5}, 64),
		"plaintext bytes": []byte("p@ss!"),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt(input, key)
			if err != ErrDecryption {
				t.Errorf("err = %v, want exactly ErrDecryption", err)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	material := bytes.Repeat([]byte{0x42}, KeySize)
	standard := base64.StdEncoding.EncodeToString(material)
	urlSafe := base64.URLEncoding.EncodeToString(material)

	first, err := ParseKey(standard)
	if err != nil {
		t.Fatalf("ParseKey(standard): %v", err)
	}
	defer first.Close()
	second, err := ParseKey(urlSafe)
	if err != nil {
		t.Fatalf("ParseKey(url-safe): %v", err)
	}
	defer second.Close()

	// Both encodings of the same bytes must yield interchangeable keys.
	blob, err := Encrypt([]byte("shared"), first)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(blob, second); err != nil {
		t.Errorf("keys parsed from equivalent encodings disagree: %v", err)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"not base64": "this is not base64 at all!",
		"too short":  base64.StdEncoding.EncodeToString(make([]byte, 16)),
		"too long":   base64.StdEncoding.EncodeToString(make([]byte, 33)),
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			key, err := ParseKey(encoded)
			if !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ParseKey err = %v, want ErrInvalidKey", err)
			}
			if key != nil {
				key.Close()
				t.Error("ParseKey returned a key alongside an error")
			}
		})
	}
}

func TestGenerateKeyParses(t *testing.T) {
	encoded, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	key, err := ParseKey(encoded)
	if err != nil {
		t.Fatalf("ParseKey(GenerateKey()): %v", err)
	}
	key.Close()

	other, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if other == encoded {
		t.Error("GenerateKey returned the same key twice")
	}
}

func TestEncodeDecodeString(t *testing.T) {
	key := testKey(t, 0x01)
	blob, err := Encrypt([]byte("p@ss!"), key)
	if err != nil {
		t.Fatal(err)
	}

	text := EncodeString(blob)
	if strings.ContainsAny(text, "+/=") {
		t.Errorf("EncodeString produced non URL-safe text %q", text)
	}
	decoded, err := DecodeString(text)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, blob) {
		t.Error("DecodeString(EncodeString(blob)) != blob")
	}

	if _, err := DecodeString("!!!"); !errors.Is(err, ErrDecryption) {
		t.Errorf("DecodeString(garbage) = %v, want ErrDecryption", err)
	}
}
