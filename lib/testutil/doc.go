// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for passvault packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern used when a test waits on a server goroutine. They are the
// only place in the test suite that uses real wall-clock timeouts;
// expiry logic is tested with clock.Fake instead.
//
// [DatabasePath] returns a fresh SQLite path inside t.TempDir().
// [UniqueID] generates distinct fixture values (site URLs, names)
// without consulting the clock.
//
// All helpers call t.Fatalf on failure. The package imports no other
// passvault package, so any package's tests may use it.
package testutil
