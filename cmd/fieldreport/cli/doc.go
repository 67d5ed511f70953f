// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the fieldreport
// binary.
//
// The central type is [Command]: a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in
// cmd/fieldreport/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and help output with
// examples. Unknown subcommands and flags get a "did you mean"
// suggestion based on edit distance.
package cli
