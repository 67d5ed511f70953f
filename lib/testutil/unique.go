// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns "prefix-N" where N increases monotonically across
// the test binary. Use it for emails, table names or titles that must
// not collide between subtests sharing a store.
//
//	email := testutil.UniqueID("agent") + "@example.org"
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
