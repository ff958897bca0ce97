// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/passvault/lib/recordstore"
	"github.com/bureau-foundation/passvault/lib/sealed"
	"github.com/bureau-foundation/passvault/lib/secret"
	"github.com/bureau-foundation/passvault/lib/secretcipher"
)

// Source lists the records to export. *recordstore.Store implements it.
type Source interface {
	List(ctx context.Context) ([]recordstore.Record, error)
}

// Sink receives imported records. *recordstore.Store implements it.
type Sink interface {
	Put(ctx context.Context, record recordstore.Record) (int64, error)
}

// Result reports what Import did.
type Result struct {
	Imported int
	Skipped  int
}

// Export decrypts every record with key and returns an armored age
// file sealed to recipients. It fails without output if any secret
// cannot be decrypted.
func Export(ctx context.Context, source Source, key *secretcipher.Key, recipients []string, compression Compression) ([]byte, error) {
	records, err := source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup: listing records: %w", err)
	}

	entries := make([]entry, 0, len(records))
	defer func() {
		for _, e := range entries {
			secret.Zero(e.Secret)
		}
	}()
	for _, record := range records {
		plaintext, err := secretcipher.Decrypt(record.Secret, key)
		if err != nil {
			return nil, fmt.Errorf("backup: record %d: %w", record.ID, err)
		}
		entries = append(entries, entry{
			Site:      record.Site,
			URL:       record.URL,
			Login:     record.Login,
			Secret:    plaintext,
			CreatedAt: record.CreatedAt.UnixMilli(),
			UpdatedAt: record.UpdatedAt.UnixMilli(),
		})
	}

	sum, err := checksum(entries)
	if err != nil {
		return nil, err
	}
	framed, err := pack(&bundle{
		Version:   formatVersion,
		CreatedAt: time.Now().UnixMilli(),
		Entries:   entries,
		Checksum:  sum,
	}, compression)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(framed)

	return sealed.Seal(framed, recipients)
}

// Import opens data with identity and stores every entry, encrypting
// secrets under key. Entries whose URL already exists are skipped.
func Import(ctx context.Context, sink Sink, key *secretcipher.Key, data []byte, identity *secret.Buffer) (Result, error) {
	plaintext, err := sealed.Open(data, identity)
	if err != nil {
		return Result{}, fmt.Errorf("backup: %w", err)
	}
	defer plaintext.Close()

	b, err := unpack(plaintext.Bytes())
	if err != nil {
		return Result{}, err
	}
	defer func() {
		for _, e := range b.Entries {
			secret.Zero(e.Secret)
		}
	}()

	var result Result
	for _, e := range b.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		ciphertext, err := secretcipher.Encrypt(e.Secret, key)
		if err != nil {
			return result, fmt.Errorf("backup: encrypting %s: %w", e.URL, err)
		}
		_, err = sink.Put(ctx, recordstore.Record{
			Site:   e.Site,
			URL:    e.URL,
			Login:  e.Login,
			Secret: ciphertext,
		})
		if errors.Is(err, recordstore.ErrDuplicateURL) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("backup: storing %s: %w", e.URL, err)
		}
		result.Imported++
	}
	return result, nil
}
