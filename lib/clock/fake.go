// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a Clock whose time moves only when Advance or Set is
// called. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	channel  chan time.Time
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After registers a waiter that fires when the clock reaches now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.waiters = append(c.waiters, fakeWaiter{deadline: c.current.Add(d), channel: channel})
	return channel
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is at or before the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set moves the clock to t. Moving backwards is allowed and fires
// nothing.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t

	var due, remaining []fakeWaiter
	for _, waiter := range c.waiters {
		if waiter.deadline.After(t) {
			remaining = append(remaining, waiter)
		} else {
			due = append(due, waiter)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, waiter := range due {
		waiter.channel <- t
	}
}

// Pending returns the number of waiters that have not fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
