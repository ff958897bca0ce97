// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/passvault/lib/clock"
	"github.com/bureau-foundation/passvault/lib/sqlitepool"
)

var (
	ErrNotFound     = errors.New("recordstore: record not found")
	ErrDuplicateURL = errors.New("recordstore: a record with this URL already exists")
)

// migrations is the schema history. Append only.
var migrations = []string{
	`CREATE TABLE entries (
		id         INTEGER PRIMARY KEY,
		site       TEXT    NOT NULL,
		url        TEXT    NOT NULL UNIQUE,
		login      TEXT    NOT NULL,
		secret     BLOB    NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX entries_site ON entries (site, id);`,
}

// Record is one stored entry. Secret is ciphertext.
type Record struct {
	ID        int64
	Site      string
	URL       string
	Login     string
	Secret    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// PoolSize is passed to sqlitepool. Zero uses its default.
	PoolSize int

	// Clock stamps created_at and updated_at. Nil means the real clock.
	Clock clock.Clock

	// Logger receives pool lifecycle messages. Nil discards them.
	Logger *slog.Logger
}

// Store is the SQLite-backed record store.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens or creates the database at cfg.Path and migrates it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:       cfg.Path,
		PoolSize:   cfg.PoolSize,
		Logger:     logger,
		Migrations: migrations,
	})
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	return &Store{pool: pool, clock: clk, logger: logger}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("recordstore: get: %w", err)
	}
	defer s.pool.Put(conn)

	var (
		record Record
		found  bool
	)
	err = sqlitex.Execute(conn,
		`SELECT id, site, url, login, secret, created_at, updated_at
		 FROM entries WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record = scanRecord(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return Record{}, fmt.Errorf("recordstore: get %d: %w", id, err)
	}
	if !found {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// List returns every record ordered by site, then ID.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("recordstore: list: %w", err)
	}
	defer s.pool.Put(conn)

	var records []Record
	err = sqlitex.Execute(conn,
		`SELECT id, site, url, login, secret, created_at, updated_at
		 FROM entries ORDER BY site, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, scanRecord(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("recordstore: list: %w", err)
	}
	return records, nil
}

// Put inserts a new record and returns its ID. The ID and timestamps
// on the argument are ignored.
func (s *Store) Put(ctx context.Context, record Record) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("recordstore: put: %w", err)
	}
	defer s.pool.Put(conn)

	now := s.clock.Now().UnixMilli()
	err = sqlitex.Execute(conn,
		`INSERT INTO entries (site, url, login, secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{record.Site, record.URL, record.Login, record.Secret, now, now},
		})
	if err != nil {
		return 0, classify("put", err)
	}
	return conn.LastInsertRowID(), nil
}

// Update replaces the site, URL, login and secret of an existing
// record. A nil Secret keeps the stored ciphertext.
func (s *Store) Update(ctx context.Context, id int64, record Record) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("recordstore: update: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("recordstore: update: begin: %w", err)
	}
	defer endTransaction(&err)

	now := s.clock.Now().UnixMilli()
	if record.Secret == nil {
		err = sqlitex.Execute(conn,
			`UPDATE entries SET site = ?, url = ?, login = ?, updated_at = ?
			 WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{record.Site, record.URL, record.Login, now, id},
			})
	} else {
		err = sqlitex.Execute(conn,
			`UPDATE entries SET site = ?, url = ?, login = ?, secret = ?, updated_at = ?
			 WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{record.Site, record.URL, record.Login, record.Secret, now, id},
			})
	}
	if err != nil {
		return classify("update", err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("recordstore: delete: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM entries WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("recordstore: delete %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(stmt *sqlite.Stmt) Record {
	secret := make([]byte, stmt.ColumnLen(4))
	stmt.ColumnBytes(4, secret)
	return Record{
		ID:        stmt.ColumnInt64(0),
		Site:      stmt.ColumnText(1),
		URL:       stmt.ColumnText(2),
		Login:     stmt.ColumnText(3),
		Secret:    secret,
		CreatedAt: time.UnixMilli(stmt.ColumnInt64(5)),
		UpdatedAt: time.UnixMilli(stmt.ColumnInt64(6)),
	}
}

func classify(operation string, err error) error {
	switch code := sqlite.ErrCode(err); {
	case code == sqlite.ResultConstraintUnique:
		return ErrDuplicateURL
	case code.ToPrimary() == sqlite.ResultConstraint && strings.Contains(err.Error(), "UNIQUE"):
		return ErrDuplicateURL
	}
	return fmt.Errorf("recordstore: %s: %w", operation, err)
}
