// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sharetoken issues and verifies the signed, expiring tokens
// behind guest share links.
//
// A share token proves one thing: the owner asked for a link at a
// given instant. It carries no record identifier and no grants. The
// sharing flow places the record ID next to the token in the URL path
// (/shared/{token}/{id}), so any unexpired token is accepted for any
// record ID. The vault service documents that consequence. There is
// no server-side registry, so a token cannot be revoked early; it
// simply stops verifying once its window closes.
//
// # Wire format
//
// A token is unpadded URL-safe base64 over:
//
//	[CBOR payload bytes] [64-byte Ed25519 signature]
//
// The payload is a deterministic-CBOR map holding the issuance time in
// Unix milliseconds. The split point is always len(raw) - 64.
//
// # Keys
//
// The configured SIGNING_KEY is an arbitrary secret string. The Ed25519
// seed is derived from it with HKDF-SHA256 under a fixed domain
// string, so the same SIGNING_KEY always yields the same keypair and
// tokens survive process restarts.
//
// # Verification outcomes
//
// [Verify] distinguishes two failures because the guest sees different
// messages for them:
//
//   - [ErrMalformed]: anything that is not a token we signed (bad
//     base64, wrong length, bad signature, foreign key, undecodable
//     payload). Time is never consulted.
//   - [ErrExpired]: a genuine token whose window closed. Validity is
//     now <= issued + ttl, recomputed on every call.
//
// Verification is a pure function of the token, the key, the ttl and
// the supplied time. [Authority] binds the key, the ttl and a
// clock.Clock together for the service layer.
package sharetoken
