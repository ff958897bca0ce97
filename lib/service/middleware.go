// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"log/slog"
	"net/http"
	"time"
)

// Harden sets headers that keep responses out of caches and stop
// content sniffing and framing.
func Harden(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Cache-Control", "no-store")
		header.Set("Pragma", "no-cache")
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("X-Frame-Options", "DENY")
		header.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs one line per request. The logged path is the
// route template from routeOf when it returns non-empty, so bearer
// tokens embedded in URLs never reach the log.
func LogRequests(logger *slog.Logger, routeOf func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := ""
		if routeOf != nil {
			route = routeOf(r)
		}
		if route == "" {
			route = "unmatched"
		}
		logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", recorder.status,
			"duration", time.Since(start),
		)
	})
}
