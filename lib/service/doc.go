// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP serving scaffolding for the
// passvault server: a TCP server with readiness signalling and
// graceful shutdown, and the middleware every response passes
// through.
//
// The binary composes these in its own main() rather than handing
// control to a framework:
//
//	router.Use(func(next http.Handler) http.Handler {
//	    return service.LogRequests(logger, routeTemplate, next)
//	})
//	server := service.NewHTTPServer(service.HTTPServerConfig{
//	    Address: cfg.Listen,
//	    Handler: service.Harden(router),
//	    Logger:  logger,
//	})
//	return server.Serve(ctx)
//
// [Harden] marks every response uncacheable. Revealed secrets travel
// in response bodies, and nothing served here should persist in a
// browser or proxy cache.
package service
