// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the shared pieces of fieldreport's terminal
// interface: the color theme, fuzzy matching for filtered lists, and a
// slog handler that surfaces warnings in the status bar of a running
// bubbletea program.
//
// Screens themselves live in lib/reportui. This package has no
// knowledge of sessions or the directory; it only formats.
package tui
