// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstore persists vault entries in SQLite.
//
// Each entry is a row in the entries table: the site name, its URL,
// the login, and the secret. The secret column always holds a
// secretcipher blob; the store never sees or interprets plaintext.
// URLs are unique across the table, matching one stored credential per
// site address.
//
// The store is safe for concurrent use. Reads share the WAL; writes
// run in immediate transactions.
package recordstore
