// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" with N increasing across the test
// binary.
//
//	url := "https://" + testutil.UniqueID("site") + ".example"
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// DatabasePath returns a path for a new SQLite database that is
// removed with the test's temporary directory.
func DatabasePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), UniqueID("passvault")+".db")
}
