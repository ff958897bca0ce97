// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package backup exports and imports the vault as an encrypted file.
//
// [Export] decrypts every record under the current cipher key and
// writes a CBOR bundle of plaintext entries with a BLAKE3 checksum.
// The bundle is optionally compressed (LZ4 or zstd, recorded in a
// small header) and then age-encrypted to one or more recipients via
// [sealed.Seal]. The cipher key never leaves the process; a backup is
// readable only by the holders of the recipients' private keys.
//
// [Import] reverses the chain and re-encrypts each secret under the
// importing server's cipher key, so a backup can move records between
// installations with different keys. Entries whose URL already exists
// are skipped and counted in [Result].
package backup
