// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/passvault/lib/keyring"
	"github.com/bureau-foundation/passvault/lib/ownerauth"
	"github.com/bureau-foundation/passvault/lib/sealed"
	"github.com/bureau-foundation/passvault/lib/secret"
	"github.com/bureau-foundation/passvault/lib/version"
)

func (c *cli) keygenCommand() *command {
	return &command{
		Name:    "keygen",
		Summary: "Print fresh CIPHER_KEY and SIGNING_KEY values",
		Run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("keygen takes no arguments")
			}
			generated, err := keyring.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s=%s\n", keyring.CipherKeyName, generated.CipherKey)
			fmt.Fprintf(c.stdout, "%s=%s\n", keyring.SigningKeyName, generated.SigningKey)
			return nil
		},
	}
}

func (c *cli) hashPasswordCommand() *command {
	return &command{
		Name:    "hash-password",
		Summary: "Hash the owner password for OWNER_PASSWORD_HASH",
		Usage:   "passvault hash-password < password.txt",
		Run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("hash-password reads the password from stdin, not arguments")
			}
			password, err := c.readPassword()
			if err != nil {
				return err
			}
			defer password.Close()

			hash, err := ownerauth.HashPassword(string(password.Bytes()))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, hash)
			return nil
		},
	}
}

// readPassword prompts twice on a terminal or reads one line from
// piped stdin.
func (c *cli) readPassword() (*secret.Buffer, error) {
	fd, interactive := c.terminalFD()
	if !interactive {
		line, err := bufio.NewReader(c.stdin).ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, fmt.Errorf("reading password from stdin: %w", err)
		}
		password := bytes.TrimRight(line, "\r\n")
		if len(password) == 0 {
			secret.Zero(line)
			return nil, fmt.Errorf("password is empty")
		}
		buffer, err := secret.NewFromBytes(password)
		secret.Zero(line)
		return buffer, err
	}

	fmt.Fprint(c.stderr, "Owner password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(c.stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(c.stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(c.stderr)
	if err != nil {
		secret.Zero(first)
		return nil, fmt.Errorf("reading password confirmation: %w", err)
	}
	match := bytes.Equal(first, second)
	secret.Zero(second)
	if !match {
		secret.Zero(first)
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("password is empty")
	}
	return secret.NewFromBytes(first)
}

func (c *cli) ageKeygenCommand() *command {
	var output string
	return &command{
		Name:    "age-keygen",
		Summary: "Generate an age keypair for encrypting backups",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("age-keygen", pflag.ContinueOnError)
			flags.StringVarP(&output, "output", "o", "", "write the identity to this file (mode 0600) instead of stdout")
			return flags
		},
		Run: func(_ *pflag.FlagSet, args []string) error {
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			var identity bytes.Buffer
			fmt.Fprintf(&identity, "# created: %s\n", time.Now().UTC().Format(time.RFC3339))
			fmt.Fprintf(&identity, "# public key: %s\n", keypair.PublicKey)
			identity.Write(keypair.PrivateKey.Bytes())
			identity.WriteByte('\n')
			defer secret.Zero(identity.Bytes())

			if output == "" {
				_, err := c.stdout.Write(identity.Bytes())
				return err
			}
			if err := os.WriteFile(output, identity.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing identity: %w", err)
			}
			fmt.Fprintf(c.stderr, "Public key: %s\n", keypair.PublicKey)
			return nil
		},
	}
}

// readIdentity loads the first AGE-SECRET-KEY line of an age identity
// file.
func readIdentity(path string) (*secret.Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity: %w", err)
	}
	defer secret.Zero(data)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return sealed.ParsePrivateKey(line)
	}
	return nil, fmt.Errorf("identity file %s holds no key", path)
}

func (c *cli) versionCommand() *command {
	return &command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ *pflag.FlagSet, _ []string) error {
			fmt.Fprintf(c.stdout, "passvault %s\n", version.Full())
			return nil
		},
	}
}
