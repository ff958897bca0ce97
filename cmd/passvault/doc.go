// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Passvault is the administration CLI for a passvault installation.
//
//	passvault keygen                  # CIPHER_KEY=... and SIGNING_KEY=...
//	passvault hash-password           # bcrypt hash for OWNER_PASSWORD_HASH
//	passvault age-keygen -o id.txt    # keypair for backups
//	passvault export -r age1... -o vault.age
//	passvault import -i id.txt vault.age
//	passvault version
//
// export and import read the same configuration as the server (YAML
// file plus environment) and need CIPHER_KEY. Export decrypts every
// entry and seals the plaintext to the age recipients; import
// re-encrypts under the current CIPHER_KEY and skips URLs that
// already exist.
package main
