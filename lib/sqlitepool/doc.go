// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite database that holds passvault's
// encrypted records.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with fixed pragmas
// and a forward-only schema migrator. Callers [Pool.Take] a
// connection, do their work, and [Pool.Put] it back. Connections are
// not safe for concurrent use; each goroutine holds its own.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=FULL: a committed record survives power loss. The
//     vault is the only copy of the owner's credentials.
//   - busy_timeout=5000: wait for the write lock instead of failing
//     with SQLITE_BUSY.
//   - secure_delete=ON: freed pages are overwritten, so a deleted
//     record's ciphertext does not linger in the file.
//   - foreign_keys=ON
//   - temp_store=MEMORY
//
// # Migrations
//
// [Config.Migrations] is an ordered list of SQL scripts. Script i moves
// the schema from user_version i to i+1. [Open] applies the pending
// scripts once, each in its own immediate transaction, before any
// connection is handed out. Scripts are never edited after release;
// schema changes append a new script.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:       "/var/lib/passvault/passvault.db",
//	    Logger:     logger,
//	    Migrations: []string{schemaV1},
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
package sqlitepool
