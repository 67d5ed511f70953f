// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Credential expiry, refresh decisions and occurrence timestamps all
// read time through a [Clock] so tests can pin the wall clock with
// [Fake] and move it deliberately with [FakeClock.Advance]. Production
// code uses [Real].
//
// Only the two operations this module needs are abstracted: reading the
// current time and waiting for a duration. Waiters registered on a
// FakeClock fire when Advance moves the clock past their deadline, in
// deadline order.
package clock
