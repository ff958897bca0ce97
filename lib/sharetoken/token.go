// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sharetoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/passvault/lib/codec"
)

// signatureSize is the fixed size of an Ed25519 signature.
const signatureSize = ed25519.SignatureSize

// maxTokenLength bounds the encoded form. Real tokens are about 100
// characters; anything much longer is rejected before decoding.
const maxTokenLength = 256

// encoding is strict so that every token has exactly one textual form.
// A lenient decoder would accept variants of the final character that
// differ only in unused bits.
var encoding = base64.RawURLEncoding.Strict()

// Errors returned by Issue and Verify.
var (
	ErrMalformed  = errors.New("sharetoken: malformed token")
	ErrExpired    = errors.New("sharetoken: token has expired")
	ErrInvalidTTL = errors.New("sharetoken: ttl must be positive")
)

// Token is the URL-safe textual form of a share token.
type Token string

// payload is the signed body of a token.
type payload struct {
	// IssuedAt is the issuance time in Unix milliseconds.
	IssuedAt int64 `cbor:"1,keyasint"`
}

// Claims is what a verified token asserts.
type Claims struct {
	IssuedAt time.Time
}

// ExpiresAt returns the last instant at which the token verifies
// under ttl.
func (c Claims) ExpiresAt(ttl time.Duration) time.Time {
	return c.IssuedAt.Add(ttl)
}

// Issue signs a token stamped with the current time. It returns the
// token and the instant it stops being valid.
func Issue(key *SigningKey, ttl time.Duration) (Token, time.Time, error) {
	return IssueAt(key, ttl, time.Now())
}

// IssueAt is like Issue but stamps the token with now. The stamp is
// truncated to millisecond precision; the returned expiry reflects the
// truncated stamp.
func IssueAt(key *SigningKey, ttl time.Duration, now time.Time) (Token, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, ErrInvalidTTL
	}

	issuedAt := time.UnixMilli(now.UnixMilli())
	body, err := codec.Marshal(payload{IssuedAt: issuedAt.UnixMilli()})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sharetoken: encoding payload: %w", err)
	}

	raw := make([]byte, 0, len(body)+signatureSize)
	raw = append(raw, body...)
	raw = append(raw, key.sign(body)...)

	return Token(encoding.EncodeToString(raw)), issuedAt.Add(ttl), nil
}

// Verify checks token against key and ttl at the current time.
func Verify(token Token, key *SigningKey, ttl time.Duration) (Claims, error) {
	return VerifyAt(token, key, ttl, time.Now())
}

// VerifyAt is like Verify but evaluates expiry at now. The result is a
// pure function of its arguments.
func VerifyAt(token Token, key *SigningKey, ttl time.Duration, now time.Time) (Claims, error) {
	if ttl <= 0 {
		return Claims{}, ErrInvalidTTL
	}

	claims, err := authenticate(token, key)
	if err != nil {
		return Claims{}, err
	}
	if now.After(claims.ExpiresAt(ttl)) {
		return claims, ErrExpired
	}
	return claims, nil
}

// authenticate decodes and checks the signature without looking at the
// clock. Every failure is ErrMalformed.
func authenticate(token Token, key *SigningKey) (Claims, error) {
	if len(token) == 0 || len(token) > maxTokenLength {
		return Claims{}, fmt.Errorf("%w: length %d", ErrMalformed, len(token))
	}

	raw, err := encoding.DecodeString(string(token))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: not base64url", ErrMalformed)
	}
	if len(raw) <= signatureSize {
		return Claims{}, fmt.Errorf("%w: too short for signature", ErrMalformed)
	}

	splitPoint := len(raw) - signatureSize
	body, signature := raw[:splitPoint], raw[splitPoint:]
	if !key.verify(body, signature) {
		return Claims{}, fmt.Errorf("%w: invalid signature", ErrMalformed)
	}

	var decoded payload
	if err := codec.Unmarshal(body, &decoded); err != nil {
		return Claims{}, fmt.Errorf("%w: decoding payload: %v", ErrMalformed, err)
	}
	if decoded.IssuedAt <= 0 {
		return Claims{}, fmt.Errorf("%w: missing issuance time", ErrMalformed)
	}

	return Claims{IssuedAt: time.UnixMilli(decoded.IssuedAt)}, nil
}

// Fingerprint returns a short, non-reversible identifier for token,
// suitable for log lines. The token itself is a bearer credential and
// must never be logged.
func Fingerprint(token Token) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
