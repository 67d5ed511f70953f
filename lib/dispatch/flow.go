// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "sync/atomic"

// Token identifies one flow instance.
type Token uint64

// Flows hands out flow tokens. Starting a flow, or invalidating,
// makes every earlier token stale. The zero value is ready to use.
type Flows struct {
	generation atomic.Uint64
}

// Begin starts a new flow and returns its token.
func (flows *Flows) Begin() Token {
	return Token(flows.generation.Add(1))
}

// Current reports whether token belongs to the most recent flow.
func (flows *Flows) Current(token Token) bool {
	return flows.generation.Load() == uint64(token)
}

// Invalidate makes every outstanding token stale.
func (flows *Flows) Invalidate() {
	flows.generation.Add(1)
}
