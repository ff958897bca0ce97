// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Passvault-server serves the password vault over HTTP.
//
// Configuration comes from an optional YAML file (--config or
// $PASSVAULT_CONFIG) overlaid by environment variables; CIPHER_KEY,
// SIGNING_KEY and OWNER_PASSWORD_HASH are required and never read
// from the file. The server refuses to start if either key fails to
// load.
//
// Owner routes (/entries...) require a session cookie from POST
// /login. Guests read a shared entry at /shared/{token}/{id}; a
// failed guest read answers 403 with reason "expired" or "denied"
// and never says whether the entry exists. Prometheus metrics are
// served at /metrics.
package main
