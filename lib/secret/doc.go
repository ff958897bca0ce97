// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds key material outside the Go heap.
//
// A [Buffer] is an anonymous mmap region that is mlock'd (never
// swapped), marked MADV_DONTDUMP (absent from core dumps), and zeroed
// before it is unmapped. The garbage collector never sees the region,
// so it cannot leave stale copies of a key behind when it moves
// objects.
//
// passvault keeps exactly two long-lived secrets in Buffers: the
// derived secret-encryption key and the share-token signing seed.
// Both are created once at startup by lib/keyring and live until the
// process exits.
//
// Constructors:
//
//   - [New] allocates a zero-filled region of a given size
//   - [NewFromBytes] copies into a region and zeroes the source
//   - [DecodeBase64] decodes base64 text straight into a region
//
// After Close every accessor panics. Close is idempotent.
package secret
