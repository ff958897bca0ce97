// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts vault backups to age recipients.
//
// It wraps filippo.io/age for the three operations backups need:
// generate an x25519 keypair, seal plaintext to one or more public
// keys, and open a sealed file with a private key. Sealed output is
// ASCII-armored (filippo.io/age/armor) so a backup can be pasted or
// mailed; [Open] accepts armored and binary age files alike.
//
// Private keys and opened plaintext are [secret.Buffer] values: locked
// against swap, excluded from core dumps, zeroed on Close.
package sealed
