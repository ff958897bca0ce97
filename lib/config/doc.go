// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads passvault's runtime configuration.
//
// Values come from three layers, later layers winning:
//
//  1. [Default]
//  2. an optional YAML file, named by --config or PASSVAULT_CONFIG
//  3. environment variables, decoded with kelseyhightower/envconfig
//
// The two key variables, CIPHER_KEY and SIGNING_KEY, are read only
// from the environment; the YAML decoder ignores them so key material
// never sits in a config file. Their contents are validated by
// keyring.Load, not here.
//
// Duration fields accept Go duration strings ("10m", "90s") or a bare
// integer number of seconds.
//
// ${HOME} and ${VAR:-default} patterns in the database path are
// expanded after loading.
package config
