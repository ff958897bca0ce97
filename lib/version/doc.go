// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the passvault binaries.
//
// Values are injected with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/passvault/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When GitCommit is not injected, the VCS revision recorded by the Go
// toolchain is used if present.
package version
