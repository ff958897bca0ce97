// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secretcipher encrypts individual vault secrets at rest.
//
// Every stored password passes through [Encrypt] before it reaches the
// record store and through [Decrypt] before it is shown to anyone.
// The cipher is XChaCha20-Poly1305 under a single process-wide [Key].
//
// # Blob format
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The version byte is additional authenticated data, so altering it
// fails authentication like any other modification. Blobs are opaque
// to callers: the record store keeps them as raw bytes and nothing
// outside this package looks inside.
//
// # Failure semantics
//
// Decrypt has exactly one failure, [ErrDecryption]. Truncated input,
// a foreign key, a flipped bit and random garbage are
// indistinguishable by error value, and input too short to carry a
// nonce and tag still runs the AEAD over a dummy blob so that the
// rejection takes comparable time.
//
// # Keys
//
// [ParseKey] accepts the configured CIPHER_KEY (32 bytes, base64) and
// derives the AEAD key from it with HKDF-SHA256 under a fixed domain
// string. Key material lives in a secret.Buffer for the lifetime of
// the process. A malformed key is a startup error reported by
// ParseKey, never a per-call error.
package secretcipher
