// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package submission validates occurrence drafts and writes them to
// the remote store.
//
// A [Draft] is the mutable form state owned by the occurrence screen.
// Its [Snapshot] is a plain value and is the only thing handed to
// background work. [Pipeline.Submit] validates the snapshot against
// the role's [Policy], appends the header row to the Occurrences
// table, then appends one Tests row per record under the same id.
// The two appends are independent: when the header lands and the
// rows do not, the result is a partial_write failure naming the
// orphaned occurrence. It is logged and reported, never retried or
// rolled back.
package submission
