// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordlist holds an ordered, user-editable list of records
// with a single "currently editing" slot.
//
// Every entry gets a stable id when it is appended. The editing slot
// is stored as an id, not a position, so removing or reordering other
// entries never leaves it pointing at the wrong record; when the
// entry being edited is removed the slot is cleared. Index-based
// methods exist for form code that works with visible positions, and
// each has an id-based twin for callers that must survive concurrent
// edits.
//
// An Editor is not safe for concurrent use. It belongs to the UI
// goroutine.
package recordlist
