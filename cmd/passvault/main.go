// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/passvault/lib/process"
)

func main() {
	app := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := app.root().Execute(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// cli carries the process streams so commands can run under test.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) root() *command {
	return &command{
		Name:    "passvault",
		Summary: "Administer a passvault installation: keys, owner password and backups.",
		Output:  c.stderr,
		Subcommands: []*command{
			c.keygenCommand(),
			c.hashPasswordCommand(),
			c.ageKeygenCommand(),
			c.exportCommand(),
			c.importCommand(),
			c.versionCommand(),
		},
	}
}

// terminalFD returns the descriptor of stdin when it is a terminal.
func (c *cli) terminalFD() (int, bool) {
	file, ok := c.stdin.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(file.Fd())
	return fd, term.IsTerminal(fd)
}

// logger writes text to a terminal and JSON otherwise.
func (c *cli) logger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := c.stderr.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(c.stderr, options))
	}
	return slog.New(slog.NewJSONHandler(c.stderr, options))
}
