// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/passvault/lib/backup"
	"github.com/bureau-foundation/passvault/lib/config"
	"github.com/bureau-foundation/passvault/lib/keyring"
	"github.com/bureau-foundation/passvault/lib/process"
	"github.com/bureau-foundation/passvault/lib/recordstore"
	"github.com/bureau-foundation/passvault/lib/secretcipher"
)

// vaultStore opens the configured database and cipher key. The caller
// runs the returned cleanup.
func (c *cli) vaultStore(ctx context.Context, configPath string) (*recordstore.Store, *secretcipher.Key, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.CipherKey == "" {
		return nil, nil, nil, &keyring.KeyLoadError{Name: keyring.CipherKeyName, Err: fmt.Errorf("not set")}
	}
	key, err := secretcipher.ParseKey(cfg.CipherKey)
	if err != nil {
		return nil, nil, nil, &keyring.KeyLoadError{Name: keyring.CipherKeyName, Err: err}
	}

	store, err := recordstore.Open(ctx, recordstore.Config{
		Path:   cfg.Database,
		Logger: c.logger(level).With("database", cfg.Database),
	})
	if err != nil {
		key.Close()
		return nil, nil, nil, err
	}
	return store, key, func() {
		store.Close()
		key.Close()
	}, nil
}

func (c *cli) exportCommand() *command {
	var (
		configPath  string
		recipients  []string
		compression string
		output      string
	)
	return &command{
		Name:    "export",
		Summary: "Write an age-encrypted backup of every entry",
		Usage:   "passvault export -r age1... [-o backup.age]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flags.StringVarP(&configPath, "config", "c", "", "path to YAML config file (default $"+config.FileVariable+")")
			flags.StringArrayVarP(&recipients, "recipient", "r", nil, "age public key to encrypt to (repeatable)")
			flags.StringVar(&compression, "compression", "zstd", "body compression: none, lz4 or zstd")
			flags.StringVarP(&output, "output", "o", "", "write the backup to this file (mode 0600) instead of stdout")
			return flags
		},
		Run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --recipient is required")
			}
			algorithm, err := backup.ParseCompression(compression)
			if err != nil {
				return err
			}

			ctx, stop := process.SignalContext(context.Background())
			defer stop()

			store, key, cleanup, err := c.vaultStore(ctx, configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := backup.Export(ctx, store, key, recipients, algorithm)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := c.stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("writing backup: %w", err)
			}
			fmt.Fprintf(c.stderr, "wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
}

func (c *cli) importCommand() *command {
	var (
		configPath   string
		identityPath string
	)
	return &command{
		Name:    "import",
		Summary: "Restore entries from an age-encrypted backup",
		Usage:   "passvault import -i identity.txt [backup.age|-]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
			flags.StringVarP(&configPath, "config", "c", "", "path to YAML config file (default $"+config.FileVariable+")")
			flags.StringVarP(&identityPath, "identity", "i", "", "age identity file holding the backup's private key")
			return flags
		},
		Run: func(_ *pflag.FlagSet, args []string) error {
			if identityPath == "" {
				return fmt.Errorf("--identity is required")
			}
			if len(args) > 1 {
				return fmt.Errorf("import takes at most one backup file")
			}

			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(c.stdin)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading backup: %w", err)
			}

			identity, err := readIdentity(identityPath)
			if err != nil {
				return err
			}
			defer identity.Close()

			ctx, stop := process.SignalContext(context.Background())
			defer stop()

			store, key, cleanup, err := c.vaultStore(ctx, configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := backup.Import(ctx, store, key, data, identity)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "imported %d, skipped %d existing\n", result.Imported, result.Skipped)
			return nil
		},
	}
}
