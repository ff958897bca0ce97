// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/passvault/lib/recordstore"
	"github.com/bureau-foundation/passvault/lib/secretcipher"
	"github.com/bureau-foundation/passvault/lib/sharetoken"
)

var (
	// ErrNotFound is returned to the owner for a missing record.
	// Guests never see it.
	ErrNotFound = errors.New("vault: entry not found")

	ErrDuplicateURL = errors.New("vault: an entry for this URL already exists")

	// ErrInvalidEntry wraps field validation failures.
	ErrInvalidEntry = errors.New("vault: invalid entry")

	// ErrSecretUnavailable means a stored secret could not be
	// decrypted. The error never includes plaintext.
	ErrSecretUnavailable = errors.New("vault: secret unavailable")

	// ErrAccessDenied is returned for every guest failure.
	ErrAccessDenied = errors.New("vault: access denied")
)

// Store is the record persistence the vault depends on.
// *recordstore.Store implements it.
type Store interface {
	Get(ctx context.Context, id int64) (recordstore.Record, error)
	List(ctx context.Context) ([]recordstore.Record, error)
	Put(ctx context.Context, record recordstore.Record) (int64, error)
	Update(ctx context.Context, id int64, record recordstore.Record) error
	Delete(ctx context.Context, id int64) error
}

// Entry is a new credential supplied by the owner.
type Entry struct {
	Site   string
	URL    string
	Login  string
	Secret []byte
}

// EntryUpdate replaces an entry's fields. A nil Secret keeps the
// stored secret.
type EntryUpdate struct {
	Site   string
	URL    string
	Login  string
	Secret []byte
}

// Summary is an entry without its secret.
type Summary struct {
	ID        int64
	Site      string
	URL       string
	Login     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Revealed is an entry with its decrypted secret.
type Revealed struct {
	Summary
	Secret []byte
}

// ShareLink is the result of Share. Path is the guest URL path.
type ShareLink struct {
	Token     sharetoken.Token
	RecordID  int64
	Path      string
	ExpiresAt time.Time
}

// Config holds a Vault's collaborators. Store, Cipher and Tokens are
// required.
type Config struct {
	Store  Store
	Cipher *secretcipher.Key
	Tokens *sharetoken.Authority

	// Logger defaults to discarding.
	Logger *slog.Logger

	// Registerer receives the vault's collectors. Nil skips
	// registration.
	Registerer prometheus.Registerer
}

// Vault is safe for concurrent use.
type Vault struct {
	store   Store
	cipher  *secretcipher.Key
	tokens  *sharetoken.Authority
	logger  *slog.Logger
	metrics *metrics
}

// New returns a Vault.
func New(cfg Config) (*Vault, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("vault: Store is required")
	}
	if cfg.Cipher == nil {
		return nil, fmt.Errorf("vault: Cipher is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("vault: Tokens is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("vault: registering metrics: %w", err)
	}
	return &Vault{
		store:   cfg.Store,
		cipher:  cfg.Cipher,
		tokens:  cfg.Tokens,
		logger:  logger,
		metrics: m,
	}, nil
}

// Add encrypts the secret and stores a new entry.
func (v *Vault) Add(ctx context.Context, entry Entry) (int64, error) {
	if err := validate(entry.Site, entry.URL, entry.Login); err != nil {
		return 0, err
	}
	if len(entry.Secret) == 0 {
		return 0, fmt.Errorf("%w: secret is required", ErrInvalidEntry)
	}

	ciphertext, err := secretcipher.Encrypt(entry.Secret, v.cipher)
	if err != nil {
		return 0, fmt.Errorf("vault: encrypting secret: %w", err)
	}

	id, err := v.store.Put(ctx, recordstore.Record{
		Site:   strings.TrimSpace(entry.Site),
		URL:    strings.TrimSpace(entry.URL),
		Login:  entry.Login,
		Secret: ciphertext,
	})
	if err != nil {
		return 0, storeError(err)
	}
	v.logger.Info("entry added", "id", id, "site", entry.Site)
	return id, nil
}

// Edit replaces an entry's fields, re-encrypting only when a new
// secret is supplied.
func (v *Vault) Edit(ctx context.Context, id int64, update EntryUpdate) error {
	if err := validate(update.Site, update.URL, update.Login); err != nil {
		return err
	}

	record := recordstore.Record{
		Site:  strings.TrimSpace(update.Site),
		URL:   strings.TrimSpace(update.URL),
		Login: update.Login,
	}
	if update.Secret != nil {
		if len(update.Secret) == 0 {
			return fmt.Errorf("%w: secret must not be empty", ErrInvalidEntry)
		}
		ciphertext, err := secretcipher.Encrypt(update.Secret, v.cipher)
		if err != nil {
			return fmt.Errorf("vault: encrypting secret: %w", err)
		}
		record.Secret = ciphertext
	}

	if err := v.store.Update(ctx, id, record); err != nil {
		return storeError(err)
	}
	v.logger.Info("entry updated", "id", id, "secret_changed", update.Secret != nil)
	return nil
}

// Delete removes an entry.
func (v *Vault) Delete(ctx context.Context, id int64) error {
	if err := v.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	v.logger.Info("entry deleted", "id", id)
	return nil
}

// List returns every entry without secrets.
func (v *Vault) List(ctx context.Context) ([]Summary, error) {
	records, err := v.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	summaries := make([]Summary, len(records))
	for i, record := range records {
		summaries[i] = summarize(record)
	}
	v.metrics.entries.Set(float64(len(summaries)))
	return summaries, nil
}

// Reveal returns an entry with its decrypted secret for the owner.
func (v *Vault) Reveal(ctx context.Context, id int64) (Revealed, error) {
	record, err := v.store.Get(ctx, id)
	if err != nil {
		return Revealed{}, storeError(err)
	}
	return v.open(record)
}

// Share issues a share token for an existing entry.
func (v *Vault) Share(ctx context.Context, id int64) (ShareLink, error) {
	if _, err := v.store.Get(ctx, id); err != nil {
		return ShareLink{}, storeError(err)
	}

	token, expiresAt, err := v.tokens.Issue()
	if err != nil {
		return ShareLink{}, fmt.Errorf("vault: issuing share token: %w", err)
	}
	v.metrics.tokensIssued.Inc()
	v.logger.Info("share token issued",
		"id", id,
		"token", sharetoken.Fingerprint(token),
		"expires_at", expiresAt,
	)

	return ShareLink{
		Token:     token,
		RecordID:  id,
		Path:      SharePath(token, id),
		ExpiresAt: expiresAt,
	}, nil
}

// SharePath returns the guest URL path for token and id.
func SharePath(token sharetoken.Token, id int64) string {
	return "/shared/" + string(token) + "/" + strconv.FormatInt(id, 10)
}

// GuestReveal verifies token and, if it is valid, returns the entry
// with its decrypted secret.
func (v *Vault) GuestReveal(ctx context.Context, token sharetoken.Token, id int64) (Revealed, error) {
	fingerprint := sharetoken.Fingerprint(token)

	if _, err := v.tokens.Verify(token); err != nil {
		state := sharetoken.StateOf(err)
		v.metrics.guestVerifications.WithLabelValues(state.String()).Inc()
		v.logger.Info("guest access denied",
			"token", fingerprint,
			"reason", state.String(),
		)
		if state == sharetoken.StateExpired {
			return Revealed{}, fmt.Errorf("%w: %w", ErrAccessDenied, sharetoken.ErrExpired)
		}
		return Revealed{}, fmt.Errorf("%w: %w", ErrAccessDenied, sharetoken.ErrMalformed)
	}

	record, err := v.store.Get(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		// Indistinguishable from a bad token.
		v.metrics.guestVerifications.WithLabelValues(sharetoken.StateMalformed.String()).Inc()
		v.logger.Info("guest access denied",
			"token", fingerprint,
			"reason", "unknown record",
		)
		return Revealed{}, fmt.Errorf("%w: %w", ErrAccessDenied, sharetoken.ErrMalformed)
	}
	if err != nil {
		return Revealed{}, fmt.Errorf("vault: guest lookup: %w", err)
	}

	v.metrics.guestVerifications.WithLabelValues(sharetoken.StateValid.String()).Inc()
	revealed, err := v.open(record)
	if err != nil {
		return Revealed{}, err
	}
	v.logger.Info("guest revealed entry", "id", id, "token", fingerprint)
	return revealed, nil
}

func (v *Vault) open(record recordstore.Record) (Revealed, error) {
	plaintext, err := secretcipher.Decrypt(record.Secret, v.cipher)
	if err != nil {
		v.metrics.decryptFailures.Inc()
		v.logger.Error("stored secret failed to decrypt", "id", record.ID)
		return Revealed{}, fmt.Errorf("%w: %w", ErrSecretUnavailable, err)
	}
	return Revealed{Summary: summarize(record), Secret: plaintext}, nil
}

func summarize(record recordstore.Record) Summary {
	return Summary{
		ID:        record.ID,
		Site:      record.Site,
		URL:       record.URL,
		Login:     record.Login,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, recordstore.ErrDuplicateURL):
		return ErrDuplicateURL
	default:
		return fmt.Errorf("vault: %w", err)
	}
}

func validate(site, rawURL, login string) error {
	var problems []string
	if strings.TrimSpace(site) == "" {
		problems = append(problems, "site is required")
	}
	if strings.TrimSpace(login) == "" {
		problems = append(problems, "login is required")
	}
	if strings.TrimSpace(rawURL) == "" {
		problems = append(problems, "url is required")
	} else if parsed, err := url.Parse(strings.TrimSpace(rawURL)); err != nil ||
		(parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		problems = append(problems, "url must be an absolute http or https URL")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(problems, "; "))
	}
	return nil
}
