// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is one node of the CLI tree.
type command struct {
	Name    string
	Summary string

	// Usage overrides the synthesized usage line.
	Usage string

	// Flags returns a fresh flag set. Nil means the command takes no
	// flags.
	Flags func() *pflag.FlagSet

	Subcommands []*command

	// Run receives the positional arguments left after flag parsing.
	Run func(flags *pflag.FlagSet, args []string) error

	// Output receives help text. Only the root needs it; children
	// inherit. Defaults to stderr.
	Output io.Writer

	parent *command
}

// Execute dispatches args to a subcommand or parses flags and runs c.
func (c *command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp()
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			c.printHelp()
			return fmt.Errorf("subcommand required")
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(args[1:])
			}
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", args[0], c.fullName())
	}

	flags := pflag.NewFlagSet(c.fullName(), pflag.ContinueOnError)
	if c.Flags != nil {
		flags = c.Flags()
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
	}

	if c.Run == nil {
		c.printHelp()
		return fmt.Errorf("no action defined for %q", c.fullName())
	}
	return c.Run(flags, flags.Args())
}

func (c *command) printHelp() {
	w := c.output()
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", c.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.fullName())
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var flagHelp strings.Builder
		flags := c.Flags()
		flags.SetOutput(&flagHelp)
		flags.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}
}

func (c *command) output() io.Writer {
	for node := c; node != nil; node = node.parent {
		if node.Output != nil {
			return node.Output
		}
	}
	return os.Stderr
}

func (c *command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
