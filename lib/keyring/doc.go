// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keyring loads the two configured secrets, CIPHER_KEY and
// SIGNING_KEY, into the typed keys the rest of passvault consumes.
//
// Loading happens once at startup. A [Keyring] is immutable after
// [Load] returns and is passed explicitly to the components that need
// it; nothing in passvault keeps key material in package variables.
// Any load failure is a [*KeyLoadError] naming the offending variable,
// and the server refuses to start.
//
// Besides the cipher key and the share-token signing key, the keyring
// derives the owner session cookie keys from SIGNING_KEY with HKDF
// under their own domain strings.
package keyring
