// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the passvault
// binaries: fatal error reporting before the structured logger exists,
// and a context cancelled by SIGINT or SIGTERM for graceful shutdown.
package process
