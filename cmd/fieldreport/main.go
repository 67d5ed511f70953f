// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Fieldreport is the terminal app and command-line client for
// reporting telephony occurrences. Without a command it opens the
// interactive app; see "fieldreport --help" for the rest.
package main

import (
	"os"

	"github.com/bureau-foundation/fieldreport/cmd/fieldreport/commands"
	"github.com/bureau-foundation/fieldreport/lib/process"
)

func main() {
	defer process.RecoverAndExit()
	if err := run(); err != nil {
		// Commands that print their own output (like whoami) return an
		// error carrying the exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
