// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch runs blocking work off the UI goroutine and hands
// each result back to it.
//
// [Run] starts work on its own goroutine. When work returns, or
// panics, its completion is queued; the completion callback runs only
// when the owning goroutine drains the queue with [Dispatcher.RunPending],
// [Dispatcher.Next], or the bubbletea command returned by
// [Dispatcher.Listen]. Callbacks therefore never race with each other
// or with the rest of the UI state, and a panic in work arrives as a
// [*PanicError] result instead of crashing the program.
//
// There is no cancellation. Work always runs to completion and its
// callback always fires, even after the screen that started it is
// gone. Callers that must ignore late results take a [Token] from
// [Flows.Begin] when they start a flow and check [Flows.Current]
// inside the callback.
package dispatch
