// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharetoken

import (
	"time"

	"github.com/bureau-foundation/passvault/lib/clock"
)

// Authority issues and verifies tokens with one key, one ttl and one
// clock. It holds no mutable state.
type Authority struct {
	key   *SigningKey
	ttl   time.Duration
	clock clock.Clock
}

// NewAuthority returns an Authority. ttl must be positive.
func NewAuthority(key *SigningKey, ttl time.Duration, clk clock.Clock) (*Authority, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Authority{key: key, ttl: ttl, clock: clk}, nil
}

// TTL returns the fixed validity window.
func (a *Authority) TTL() time.Duration { return a.ttl }

// Issue mints a token stamped with the authority's clock.
func (a *Authority) Issue() (Token, time.Time, error) {
	return IssueAt(a.key, a.ttl, a.clock.Now())
}

// Verify checks token at the authority's current time.
func (a *Authority) Verify(token Token) (Claims, error) {
	return VerifyAt(token, a.key, a.ttl, a.clock.Now())
}
