// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/cli"
	"github.com/bureau-foundation/fieldreport/lib/version"
)

// Root builds the complete fieldreport command tree on the process's
// own streams.
func Root() *cli.Command {
	streams := defaultIO()
	streams.Logger = cli.NewCommandLogger
	if !cli.IsTerminal() {
		// Login cannot offer the paste-the-code fallback on a pipe.
		streams.Stdin = nil
	}
	return NewRoot(streams)
}

// NewRoot builds the command tree on streams.
func NewRoot(streams IO) *cli.Command {
	var configPath string
	return &cli.Command{
		Name: "fieldreport",
		Description: `fieldreport: report telephony occurrences from the field.

Without a command, opens the terminal app: sign in, request access,
record call tests and submit occurrences. The other commands do the
same work non-interactively.`,
		Usage:  "fieldreport [command] [flags]",
		Output: streams.Stderr,
		Flags: func() *pflag.FlagSet {
			return configFlags("fieldreport", &configPath)
		},
		Run: func(args []string) error {
			return streams.runApp(configPath, args)
		},
		Subcommands: []*cli.Command{
			streams.runCommand(),
			streams.loginCommand(),
			streams.logoutCommand(),
			streams.whoamiCommand(),
			streams.requestAccessCommand(),
			streams.submitCommand(),
			streams.verifyCommand(),
			streams.adminCommand(),
			streams.storeCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(streams.Stdout, "fieldreport %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Open the terminal app",
				Command:     "fieldreport --config ~/.config/fieldreport.yaml",
			},
			{
				Description: "Sign in and check your access",
				Command:     "fieldreport login && fieldreport whoami",
			},
			{
				Description: "Submit a prepared occurrence",
				Command:     "fieldreport submit occurrence.yaml",
			},
			{
				Description: "Approve a pending user (admins only)",
				Command:     "fieldreport admin approve agent@example.org",
			},
		},
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
