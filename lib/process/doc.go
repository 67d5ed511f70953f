// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These functions
// centralize the raw I/O that happens before the structured logger
// exists or after the program can no longer use it:
//
//   - Fatal error reporting to stderr from main().
//   - The diagnostic dump written when a panic escapes to main().
//
// Everything else in the binaries logs through slog.
package process
