// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/passvault/lib/clock"
	"github.com/bureau-foundation/passvault/lib/recordstore"
	"github.com/bureau-foundation/passvault/lib/secretcipher"
	"github.com/bureau-foundation/passvault/lib/sharetoken"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// countingStore records how many times the vault reached the store.
type countingStore struct {
	Store
	gets atomic.Int64
}

func (s *countingStore) Get(ctx context.Context, id int64) (recordstore.Record, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, id)
}

type harness struct {
	vault    *Vault
	store    *countingStore
	clock    *clock.FakeClock
	cipher   *secretcipher.Key
	registry *prometheus.Registry
}

func newHarness(t *testing.T, ttl time.Duration) *harness {
	t.Helper()
	fake := clock.Fake(epoch)

	records, err := recordstore.Open(context.Background(), recordstore.Config{
		Path:  filepath.Join(t.TempDir(), "vault.db"),
		Clock: fake,
	})
	if err != nil {
		t.Fatalf("recordstore.Open: %v", err)
	}
	t.Cleanup(func() { records.Close() })

	cipherKeyText, err := secretcipher.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	cipherKey, err := secretcipher.ParseKey(cipherKeyText)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	t.Cleanup(func() { cipherKey.Close() })

	signingKey, err := sharetoken.ParseSigningKey("vault test signing key material")
	if err != nil {
		t.Fatalf("ParseSigningKey: %v", err)
	}
	t.Cleanup(func() { signingKey.Close() })

	authority, err := sharetoken.NewAuthority(signingKey, ttl, fake)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	store := &countingStore{Store: records}
	registry := prometheus.NewRegistry()
	v, err := New(Config{
		Store:      store,
		Cipher:     cipherKey,
		Tokens:     authority,
		Registerer: registry,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{vault: v, store: store, clock: fake, cipher: cipherKey, registry: registry}
}

func (h *harness) add(t *testing.T, site, url, secret string) int64 {
	t.Helper()
	id, err := h.vault.Add(context.Background(), Entry{
		Site:   site,
		URL:    url,
		Login:  "owner",
		Secret: []byte(secret),
	})
	if err != nil {
		t.Fatalf("Add(%s): %v", site, err)
	}
	return id
}

func (h *harness) counter(t *testing.T, name, outcome string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if outcome == "" {
				return metric.GetCounter().GetValue()
			}
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestOwnerAndGuestLifecycle(t *testing.T) {
	h := newHarness(t, 10*time.Second)
	ctx := context.Background()

	first := h.add(t, "Example", "https://example.com", "p@ss!")
	second := h.add(t, "Example Two", "https://two.example.com", "p@ss!")

	firstRecord, err := h.store.Store.Get(ctx, first)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	secondRecord, err := h.store.Store.Get(ctx, second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if bytes.Contains(firstRecord.Secret, []byte("p@ss!")) {
		t.Error("stored secret contains the plaintext")
	}
	if bytes.Equal(firstRecord.Secret, secondRecord.Secret) {
		t.Error("two adds of the same secret stored identical ciphertext")
	}

	revealed, err := h.vault.Reveal(ctx, first)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if string(revealed.Secret) != "p@ss!" {
		t.Errorf("Reveal secret = %q, want p@ss!", revealed.Secret)
	}

	link, err := h.vault.Share(ctx, first)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if link.RecordID != first || link.Path != SharePath(link.Token, first) {
		t.Errorf("link = %+v", link)
	}
	if !link.ExpiresAt.Equal(epoch.Add(10 * time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", link.ExpiresAt, epoch.Add(10*time.Second))
	}

	h.clock.Advance(5 * time.Second)
	guest, err := h.vault.GuestReveal(ctx, link.Token, first)
	if err != nil {
		t.Fatalf("GuestReveal within ttl: %v", err)
	}
	if string(guest.Secret) != "p@ss!" {
		t.Errorf("guest secret = %q, want p@ss!", guest.Secret)
	}

	h.clock.Advance(6 * time.Second)
	gets := h.store.gets.Load()
	_, err = h.vault.GuestReveal(ctx, link.Token, first)
	if !errors.Is(err, ErrAccessDenied) || !errors.Is(err, sharetoken.ErrExpired) {
		t.Fatalf("GuestReveal after 11s: error = %v, want access denied (expired)", err)
	}
	if h.store.gets.Load() != gets {
		t.Error("expired token reached the record store")
	}

	if got := h.counter(t, "passvault_vault_guest_verifications_total", "valid"); got != 1 {
		t.Errorf("valid verifications = %v, want 1", got)
	}
	if got := h.counter(t, "passvault_vault_guest_verifications_total", "expired"); got != 1 {
		t.Errorf("expired verifications = %v, want 1", got)
	}
	if got := h.counter(t, "passvault_vault_share_tokens_issued_total", ""); got != 1 {
		t.Errorf("tokens issued = %v, want 1", got)
	}
}

func TestGuestMalformedTokenNeverTouchesStore(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()
	id := h.add(t, "Example", "https://example.com", "secret")

	for _, token := range []sharetoken.Token{"", "garbage", "!!!", sharetoken.Token(strings.Repeat("A", 100))} {
		for _, recordID := range []int64{id, 9999} {
			_, err := h.vault.GuestReveal(ctx, token, recordID)
			if !errors.Is(err, ErrAccessDenied) || !errors.Is(err, sharetoken.ErrMalformed) {
				t.Errorf("GuestReveal(%q, %d) error = %v, want access denied (malformed)", token, recordID, err)
			}
		}
	}
	if got := h.store.gets.Load(); got != 0 {
		t.Errorf("store Get called %d times for malformed tokens", got)
	}
}

func TestGuestMissingRecordLooksLikeBadToken(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()
	id := h.add(t, "Example", "https://example.com", "secret")

	link, err := h.vault.Share(ctx, id)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	_, missingErr := h.vault.GuestReveal(ctx, link.Token, id+100)
	_, badTokenErr := h.vault.GuestReveal(ctx, "garbage", id)

	if missingErr == nil || badTokenErr == nil {
		t.Fatalf("errors = %v, %v; want both non-nil", missingErr, badTokenErr)
	}
	if missingErr.Error() != badTokenErr.Error() {
		t.Errorf("missing record error %q differs from bad token error %q", missingErr, badTokenErr)
	}
	if errors.Is(missingErr, ErrNotFound) {
		t.Error("guest error exposes ErrNotFound")
	}
}

func TestGuestTokenIsNotBoundToRecord(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()
	shared := h.add(t, "Shared", "https://shared.example", "shared-secret")
	other := h.add(t, "Other", "https://other.example", "other-secret")

	link, err := h.vault.Share(ctx, shared)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	revealed, err := h.vault.GuestReveal(ctx, link.Token, other)
	if err != nil {
		t.Fatalf("GuestReveal of a different record: %v", err)
	}
	if string(revealed.Secret) != "other-secret" {
		t.Errorf("secret = %q, want other-secret", revealed.Secret)
	}
}

func TestShareMissingEntry(t *testing.T) {
	h := newHarness(t, time.Minute)
	if _, err := h.vault.Share(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("Share(404) error = %v, want ErrNotFound", err)
	}
	if got := h.counter(t, "passvault_vault_share_tokens_issued_total", ""); got != 0 {
		t.Errorf("tokens issued = %v, want 0", got)
	}
}

func TestCorruptSecretIsUnavailable(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()

	id, err := h.store.Put(ctx, recordstore.Record{
		Site:   "Corrupt",
		URL:    "https://corrupt.example",
		Login:  "owner",
		Secret: []byte("not a ciphertext at all"),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	revealed, err := h.vault.Reveal(ctx, id)
	if !errors.Is(err, ErrSecretUnavailable) {
		t.Fatalf("Reveal error = %v, want ErrSecretUnavailable", err)
	}
	if !errors.Is(err, secretcipher.ErrDecryption) {
		t.Errorf("Reveal error = %v, want wrapped ErrDecryption", err)
	}
	if revealed.Secret != nil {
		t.Errorf("partial plaintext returned: %q", revealed.Secret)
	}
	if got := h.counter(t, "passvault_vault_decrypt_failures_total", ""); got != 1 {
		t.Errorf("decrypt failures = %v, want 1", got)
	}
}

func TestAddValidation(t *testing.T) {
	h := newHarness(t, time.Minute)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing site", Entry{URL: "https://a.example", Login: "x", Secret: []byte("s")}},
		{"missing login", Entry{Site: "A", URL: "https://a.example", Secret: []byte("s")}},
		{"missing url", Entry{Site: "A", Login: "x", Secret: []byte("s")}},
		{"relative url", Entry{Site: "A", URL: "/login", Login: "x", Secret: []byte("s")}},
		{"ftp url", Entry{Site: "A", URL: "ftp://a.example", Login: "x", Secret: []byte("s")}},
		{"missing secret", Entry{Site: "A", URL: "https://a.example", Login: "x"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := h.vault.Add(context.Background(), test.entry); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Add error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestAddDuplicateURL(t *testing.T) {
	h := newHarness(t, time.Minute)
	h.add(t, "A", "https://a.example", "one")
	_, err := h.vault.Add(context.Background(), Entry{Site: "B", URL: "https://a.example", Login: "x", Secret: []byte("two")})
	if !errors.Is(err, ErrDuplicateURL) {
		t.Errorf("Add error = %v, want ErrDuplicateURL", err)
	}
}

func TestEdit(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()
	id := h.add(t, "Example", "https://example.com", "original")

	before, err := h.store.Store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	err = h.vault.Edit(ctx, id, EntryUpdate{Site: "Renamed", URL: "https://example.com", Login: "new-login"})
	if err != nil {
		t.Fatalf("Edit without secret: %v", err)
	}
	after, err := h.store.Store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(before.Secret, after.Secret) {
		t.Error("Edit without a secret re-encrypted the stored secret")
	}

	err = h.vault.Edit(ctx, id, EntryUpdate{Site: "Renamed", URL: "https://example.com", Login: "new-login", Secret: []byte("rotated")})
	if err != nil {
		t.Fatalf("Edit with secret: %v", err)
	}
	revealed, err := h.vault.Reveal(ctx, id)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if string(revealed.Secret) != "rotated" || revealed.Site != "Renamed" || revealed.Login != "new-login" {
		t.Errorf("after edit: %+v secret=%q", revealed.Summary, revealed.Secret)
	}

	if err := h.vault.Edit(ctx, id, EntryUpdate{Site: "Renamed", URL: "https://example.com", Login: "x", Secret: []byte{}}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Edit with empty secret error = %v, want ErrInvalidEntry", err)
	}
	if err := h.vault.Edit(ctx, 999, EntryUpdate{Site: "A", URL: "https://a.example", Login: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Edit(999) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	h := newHarness(t, time.Minute)
	ctx := context.Background()
	keep := h.add(t, "Keep", "https://keep.example", "k")
	drop := h.add(t, "Drop", "https://drop.example", "d")

	if err := h.vault.Delete(ctx, drop); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := h.vault.Delete(ctx, drop); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}

	summaries, err := h.vault.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != keep {
		t.Fatalf("List = %+v, want only %d", summaries, keep)
	}
	if !summaries[0].CreatedAt.Equal(epoch) {
		t.Errorf("CreatedAt = %v, want %v", summaries[0].CreatedAt, epoch)
	}
}

func TestSharePath(t *testing.T) {
	if got := SharePath("abc_-123", 42); got != "/shared/abc_-123/42" {
		t.Errorf("SharePath = %q", got)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New with empty Config succeeded")
	}
}
