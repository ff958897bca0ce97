// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration used by passvault.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2), so a given
// value always produces the same bytes. Share tokens depend on this:
// the signature covers the encoded payload, and a payload must
// re-encode identically for the round-trip tests to be meaningful.
// Backup bundles use the same configuration.
//
// Decoding is strict about structure: duplicate map keys and
// indefinite-length items are rejected, so a signed payload has
// exactly one interpretation.
package codec
