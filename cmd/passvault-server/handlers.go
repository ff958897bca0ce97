// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/passvault/lib/ownerauth"
	"github.com/bureau-foundation/passvault/lib/secret"
	"github.com/bureau-foundation/passvault/lib/service"
	"github.com/bureau-foundation/passvault/lib/sharetoken"
	"github.com/bureau-foundation/passvault/lib/vault"
	"github.com/bureau-foundation/passvault/lib/version"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 64 << 10

// Guest denial reasons. Both answer 403.
const (
	reasonExpired = "expired"
	reasonDenied  = "denied"
)

type server struct {
	vault    *vault.Vault
	auth     *ownerauth.Authenticator
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

func (s *server) routes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	router.Use(func(next http.Handler) http.Handler {
		return service.LogRequests(s.logger, routeTemplate, next)
	})

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	router.Handle("/entries", s.owner(s.handleList)).Methods(http.MethodGet)
	router.Handle("/entries", s.owner(s.handleAdd)).Methods(http.MethodPost)
	router.Handle("/entries/{id:[0-9]+}", s.owner(s.handleReveal)).Methods(http.MethodGet)
	router.Handle("/entries/{id:[0-9]+}", s.owner(s.handleEdit)).Methods(http.MethodPut)
	router.Handle("/entries/{id:[0-9]+}", s.owner(s.handleDelete)).Methods(http.MethodDelete)
	router.Handle("/entries/{id:[0-9]+}/share", s.owner(s.handleShare)).Methods(http.MethodPost)

	router.HandleFunc("/shared/{token}/{id}", s.handleGuestReveal).Methods(http.MethodGet)

	return service.Harden(router)
}

func (s *server) owner(handler http.HandlerFunc) http.Handler {
	return s.auth.RequireOwner(handler)
}

// routeTemplate keeps share tokens out of request logs.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return template
}

// Wire types.

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type entryBody struct {
	ID        int64     `json:"id"`
	Site      string    `json:"site"`
	URL       string    `json:"url"`
	Login     string    `json:"login"`
	Secret    *string   `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type entryRequest struct {
	Site   string  `json:"site"`
	URL    string  `json:"url"`
	Login  string  `json:"login"`
	Secret *string `json:"secret"`
}

type shareBody struct {
	Token     string    `json:"token"`
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

func summaryBody(summary vault.Summary) entryBody {
	return entryBody{
		ID:        summary.ID,
		Site:      summary.Site,
		URL:       summary.URL,
		Login:     summary.Login,
		CreatedAt: summary.CreatedAt,
		UpdatedAt: summary.UpdatedAt,
	}
}

// writeRevealed writes an entry with its secret and zeroes the
// plaintext afterwards.
func writeRevealed(w http.ResponseWriter, revealed vault.Revealed) {
	defer secret.Zero(revealed.Secret)
	body := summaryBody(revealed.Summary)
	plaintext := string(revealed.Secret)
	body.Secret = &plaintext
	writeJSON(w, http.StatusOK, body)
}

// Handlers.

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "passvault",
		"version": version.Info(),
		"owner":   s.auth.IsAuthorizedOwner(r),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	err := s.auth.Login(w, r, request.Password)
	if errors.Is(err, ownerauth.ErrBadCredentials) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid password"})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.vault.List(r.Context())
	if err != nil {
		s.ownerError(w, r, err)
		return
	}
	entries := make([]entryBody, len(summaries))
	for i, summary := range summaries {
		entries[i] = summaryBody(summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var request entryRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	entry := vault.Entry{Site: request.Site, URL: request.URL, Login: request.Login}
	if request.Secret != nil {
		entry.Secret = []byte(*request.Secret)
		defer secret.Zero(entry.Secret)
	}
	id, err := s.vault.Add(r.Context(), entry)
	if err != nil {
		s.ownerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *server) handleReveal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	revealed, err := s.vault.Reveal(r.Context(), id)
	if err != nil {
		s.ownerError(w, r, err)
		return
	}
	writeRevealed(w, revealed)
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var request entryRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	update := vault.EntryUpdate{Site: request.Site, URL: request.URL, Login: request.Login}
	if request.Secret != nil {
		update.Secret = []byte(*request.Secret)
		defer secret.Zero(update.Secret)
	}
	if err := s.vault.Edit(r.Context(), id, update); err != nil {
		s.ownerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.vault.Delete(r.Context(), id); err != nil {
		s.ownerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	link, err := s.vault.Share(r.Context(), id)
	if err != nil {
		s.ownerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shareBody{
		Token:     string(link.Token),
		ID:        link.RecordID,
		Path:      link.Path,
		ExpiresAt: link.ExpiresAt,
	})
}

func (s *server) handleGuestReveal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	// An unparseable ID becomes 0, which is never assigned, so it is
	// denied the same way as a missing entry.
	id, _ := strconv.ParseInt(vars["id"], 10, 64)

	revealed, err := s.vault.GuestReveal(r.Context(), sharetoken.Token(vars["token"]), id)
	if err != nil {
		reason := reasonDenied
		switch {
		case errors.Is(err, sharetoken.ErrExpired):
			reason = reasonExpired
		case !errors.Is(err, vault.ErrAccessDenied):
			s.logger.Error("guest reveal failed", "error", err)
		}
		writeJSON(w, http.StatusForbidden, guestDenial(reason))
		return
	}
	writeRevealed(w, revealed)
}

func guestDenial(reason string) errorBody {
	if reason == reasonExpired {
		return errorBody{Error: "this link has expired; ask the owner for a new one", Reason: reasonExpired}
	}
	return errorBody{Error: "access denied", Reason: reasonDenied}
}

// Helpers.

func (s *server) ownerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidEntry):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, vault.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "entry not found"})
	case errors.Is(err, vault.ErrDuplicateURL):
		writeJSON(w, http.StatusConflict, errorBody{Error: "an entry for this URL already exists"})
	case errors.Is(err, vault.ErrSecretUnavailable):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "secret unavailable"})
	default:
		s.internalError(w, r, err)
	}
}

func (s *server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "route", routeTemplate(r), "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid entry id"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
