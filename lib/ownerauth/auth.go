// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ownerauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/bureau-foundation/passvault/lib/clock"
)

// CookieName is the owner session cookie.
const CookieName = "passvault_session"

// DefaultSessionTTL applies when Config.SessionTTL is zero.
const DefaultSessionTTL = 12 * time.Hour

// passwordCost is the bcrypt cost for HashPassword.
const passwordCost = 12

var (
	ErrBadCredentials = errors.New("ownerauth: bad credentials")
	ErrInvalidHash    = errors.New("ownerauth: OWNER_PASSWORD_HASH is not a bcrypt hash")
)

// Config holds an Authenticator's parameters. PasswordHash, HashKey
// and BlockKey are required.
type Config struct {
	PasswordHash string

	// HashKey authenticates the cookie; BlockKey encrypts it. Use
	// keyring.Keyring.SessionKeys.
	HashKey  []byte
	BlockKey []byte

	SessionTTL time.Duration

	// InsecureCookies drops the Secure attribute for plain-HTTP
	// development setups.
	InsecureCookies bool

	Clock  clock.Clock
	Logger *slog.Logger
}

type session struct {
	IssuedAt int64 `json:"iat"`
}

// Authenticator is safe for concurrent use.
type Authenticator struct {
	passwordHash []byte
	codec        *securecookie.SecureCookie
	ttl          time.Duration
	secure       bool
	clock        clock.Clock
	logger       *slog.Logger
}

// New validates cfg and returns an Authenticator.
func New(cfg Config) (*Authenticator, error) {
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if len(cfg.HashKey) == 0 || len(cfg.BlockKey) == 0 {
		return nil, fmt.Errorf("ownerauth: session keys are required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl / time.Second))

	return &Authenticator{
		passwordHash: []byte(cfg.PasswordHash),
		codec:        codec,
		ttl:          ttl,
		secure:       !cfg.InsecureCookies,
		clock:        clk,
		logger:       logger,
	}, nil
}

// Login checks password and, on success, sets a session cookie.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request, password string) error {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		a.logger.Warn("owner login failed", "remote", r.RemoteAddr)
		return ErrBadCredentials
	}

	now := a.clock.Now()
	value, err := a.codec.Encode(CookieName, session{IssuedAt: now.Unix()})
	if err != nil {
		return fmt.Errorf("ownerauth: encoding session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  now.Add(a.ttl),
		MaxAge:   int(a.ttl / time.Second),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	a.logger.Info("owner logged in", "remote", r.RemoteAddr)
	return nil
}

// Logout clears the session cookie.
func (a *Authenticator) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// IsAuthorizedOwner reports whether r carries a valid, unexpired
// owner session.
func (a *Authenticator) IsAuthorizedOwner(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	var decoded session
	if err := a.codec.Decode(CookieName, cookie.Value, &decoded); err != nil {
		return false
	}
	issuedAt := time.Unix(decoded.IssuedAt, 0)
	return !a.clock.Now().After(issuedAt.Add(a.ttl))
}

// RequireOwner runs next only for requests from the owner. Everyone
// else gets 401.
func (a *Authenticator) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.IsAuthorizedOwner(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "owner login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword returns a bcrypt hash suitable for OWNER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("ownerauth: password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("ownerauth: hashing password: %w", err)
	}
	return string(hash), nil
}
