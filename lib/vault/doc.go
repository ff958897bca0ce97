// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vault implements the owner and guest operations over stored
// credentials.
//
// Owner operations (Add, Edit, Delete, List, Reveal, Share) assume the
// caller has already passed the owner check; the HTTP layer enforces
// that with ownerauth.RequireOwner before any of them run. The vault
// never decrypts a secret on an unauthenticated path other than
// [Vault.GuestReveal].
//
// # Guest access
//
// [Vault.GuestReveal] verifies the share token before it touches the
// record store. Malformed and expired tokens are rejected without a
// store read. A valid token naming a record that does not exist is
// rejected with the same error as a malformed token, so a guest cannot
// probe which record IDs exist.
//
// Share tokens are not bound to a record. The link returned by
// [Vault.Share] names one record, but while the token is unexpired its
// holder can substitute any record ID in the path and read that record
// instead. Owners should treat a share link as read access to the whole
// vault for the token's lifetime.
//
// # Errors
//
// Decrypt failures surface as [ErrSecretUnavailable] and never carry
// partial plaintext. Guest denials wrap [ErrAccessDenied] together with
// sharetoken.ErrExpired or sharetoken.ErrMalformed.
package vault
