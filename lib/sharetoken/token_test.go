// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharetoken

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/passvault/lib/clock"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testKey(t *testing.T, material string) *SigningKey {
	t.Helper()
	key, err := ParseSigningKey(material)
	if err != nil {
		t.Fatalf("ParseSigningKey: %v", err)
	}
	t.Cleanup(func() { key.Close() })
	return key
}

func TestIssueAndVerify(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	token, expiresAt, err := IssueAt(key, 10*time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	if !expiresAt.Equal(epoch.Add(10 * time.Minute)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, epoch.Add(10*time.Minute))
	}
	if strings.ContainsAny(string(token), "+/=") {
		t.Errorf("token %q is not URL-safe", token)
	}

	claims, err := VerifyAt(token, key, 10*time.Minute, epoch)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if !claims.IssuedAt.Equal(epoch) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, epoch)
	}
}

func TestIssueTruncatesToMilliseconds(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	now := epoch.Add(1234567 * time.Nanosecond)
	token, expiresAt, err := IssueAt(key, time.Second, now)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	truncated := epoch.Add(time.Millisecond)
	if !expiresAt.Equal(truncated.Add(time.Second)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, truncated.Add(time.Second))
	}
	claims, err := VerifyAt(token, key, time.Second, now)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if !claims.IssuedAt.Equal(truncated) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, truncated)
	}
}

func TestExpiryBoundary(t *testing.T) {
	key := testKey(t, "correct horse battery staple")
	ttl := 10 * time.Second

	token, _, err := IssueAt(key, ttl, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}

	tests := []struct {
		name  string
		at    time.Time
		state State
	}{
		{"at issuance", epoch, StateValid},
		{"mid window", epoch.Add(5 * time.Second), StateValid},
		{"exactly at expiry", epoch.Add(ttl), StateValid},
		{"one nanosecond past", epoch.Add(ttl + time.Nanosecond), StateExpired},
		{"long past", epoch.Add(24 * time.Hour), StateExpired},
		{"issued in the future", epoch.Add(-time.Hour), StateValid},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := VerifyAt(token, key, ttl, test.at)
			if got := StateOf(err); got != test.state {
				t.Errorf("state = %v (err %v), want %v", got, err, test.state)
			}
		})
	}
}

func TestExpiredReturnsClaims(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	token, _, err := IssueAt(key, time.Second, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	claims, err := VerifyAt(token, key, time.Second, epoch.Add(time.Minute))
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("VerifyAt error = %v, want ErrExpired", err)
	}
	if !claims.IssuedAt.Equal(epoch) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, epoch)
	}
}

func TestVerifyUsesCallerTTL(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	// Tokens do not carry their window. Shrinking the configured ttl
	// shortens the life of tokens already issued.
	token, _, err := IssueAt(key, time.Hour, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	if _, err := VerifyAt(token, key, time.Minute, epoch.Add(2*time.Minute)); !errors.Is(err, ErrExpired) {
		t.Errorf("VerifyAt with shorter ttl: error = %v, want ErrExpired", err)
	}
}

func TestWrongKeyIsMalformed(t *testing.T) {
	issuer := testKey(t, "correct horse battery staple")
	other := testKey(t, "a different signing key entirely")

	token, _, err := IssueAt(issuer, time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}

	// Even far past expiry the foreign token is malformed, not expired:
	// time is never consulted for an unauthenticated token.
	for _, at := range []time.Time{epoch, epoch.Add(time.Hour)} {
		_, err := VerifyAt(token, other, time.Minute, at)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("VerifyAt(%v) error = %v, want ErrMalformed", at, err)
		}
	}
}

func TestSameMaterialSameKey(t *testing.T) {
	first := testKey(t, "correct horse battery staple")
	second := testKey(t, "correct horse battery staple")

	token, _, err := IssueAt(first, time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	if _, err := VerifyAt(token, second, time.Minute, epoch); err != nil {
		t.Errorf("token from first key rejected by second: %v", err)
	}
}

func TestTamperedTokenIsMalformed(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	token, _, err := IssueAt(key, time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}

	for index := range len(token) {
		mutated := []byte(token)
		if mutated[index] == 'A' {
			mutated[index] = 'B'
		} else {
			mutated[index] = 'A'
		}
		_, err := VerifyAt(Token(mutated), key, time.Minute, epoch)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("mutation at %d: error = %v, want ErrMalformed", index, err)
		}
	}
}

func TestMalformedInputs(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	token, _, err := IssueAt(key, time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}

	tests := []struct {
		name  string
		token Token
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"invalid alphabet", "abc$def"},
		{"padded", token + "="},
		{"truncated", token[:len(token)-4]},
		{"signature only", token[len(token)-86:]},
		{"extended", token + "AAAA"},
		{"oversized", Token(strings.Repeat("A", maxTokenLength+4))},
		{"standard alphabet", Token(strings.NewReplacer("-", "+", "_", "/").Replace(string(token)) + "+")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := VerifyAt(test.token, key, time.Minute, epoch)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
			if StateOf(err) != StateMalformed {
				t.Errorf("StateOf = %v, want malformed", StateOf(err))
			}
		})
	}
}

func TestInvalidTTL(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	for _, ttl := range []time.Duration{0, -time.Second} {
		if _, _, err := IssueAt(key, ttl, epoch); !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("IssueAt(ttl=%v) error = %v, want ErrInvalidTTL", ttl, err)
		}
		if _, err := VerifyAt("anything", key, ttl, epoch); !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("VerifyAt(ttl=%v) error = %v, want ErrInvalidTTL", ttl, err)
		}
	}
}

func TestSigningKeyTooShort(t *testing.T) {
	for _, material := range []string{"", "short", strings.Repeat("x", MinSigningKeyLength-1)} {
		if _, err := ParseSigningKey(material); !errors.Is(err, ErrInvalidSigningKey) {
			t.Errorf("ParseSigningKey(%q) error = %v, want ErrInvalidSigningKey", material, err)
		}
	}
}

func TestGenerateSigningKey(t *testing.T) {
	first, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	second, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}
	if first == second {
		t.Error("two generated keys are identical")
	}
	if len(first) != 43 {
		t.Errorf("generated key length = %d, want 43", len(first))
	}
	testKey(t, first)
}

func TestAuthority(t *testing.T) {
	key := testKey(t, "correct horse battery staple")
	fake := clock.Fake(epoch)

	authority, err := NewAuthority(key, 10*time.Second, fake)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	if authority.TTL() != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", authority.TTL())
	}

	token, expiresAt, err := authority.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.Equal(epoch.Add(10 * time.Second)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, epoch.Add(10*time.Second))
	}

	fake.Advance(10 * time.Second)
	if _, err := authority.Verify(token); err != nil {
		t.Errorf("Verify at expiry: %v", err)
	}

	fake.Advance(time.Second)
	if _, err := authority.Verify(token); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify after expiry: error = %v, want ErrExpired", err)
	}

	// Expiry is permanent: a later check gives the same answer.
	fake.Advance(time.Hour)
	if _, err := authority.Verify(token); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify long after expiry: error = %v, want ErrExpired", err)
	}
}

func TestNewAuthorityRejectsInvalidTTL(t *testing.T) {
	key := testKey(t, "correct horse battery staple")
	if _, err := NewAuthority(key, 0, nil); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("NewAuthority(0) error = %v, want ErrInvalidTTL", err)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateValid:     "valid",
		StateExpired:   "expired",
		StateMalformed: "malformed",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	key := testKey(t, "correct horse battery staple")

	first, _, err := IssueAt(key, time.Minute, epoch)
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}
	second, _, err := IssueAt(key, time.Minute, epoch.Add(time.Millisecond))
	if err != nil {
		t.Fatalf("IssueAt: %v", err)
	}

	if Fingerprint(first) != Fingerprint(first) {
		t.Error("Fingerprint is not deterministic")
	}
	if Fingerprint(first) == Fingerprint(second) {
		t.Error("distinct tokens share a fingerprint")
	}
	if len(Fingerprint(first)) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(Fingerprint(first)))
	}
	if strings.Contains(string(first), Fingerprint(first)) {
		t.Error("fingerprint is a substring of the token")
	}
}
