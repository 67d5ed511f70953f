// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for fieldreport
// packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the select
// with a time.After fallback so a broken background completion fails
// the test instead of hanging it. They are the only real wall-clock
// timeouts in the test suite; everything else uses lib/clock's fake.
//
// [Logger] returns a *slog.Logger whose records go to t.Log, so
// component logs appear interleaved with the failing assertion and
// are silent for passing tests.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation.
//
// This package has no fieldreport dependencies.
package testutil
