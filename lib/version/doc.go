// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build version information for the
// fieldreport binaries.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- release version string
//
// When GitCommit is not injected, [Info] falls back to the VCS
// revision the Go toolchain embeds in the build info.
package version
