// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(90 * time.Minute)
	want := epoch.Add(90 * time.Minute)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}
	if clock.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", clock.Pending())
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(3 * time.Second)) {
			t.Errorf("fired at %v, want %v", fired, epoch.Add(3*time.Second))
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if clock.Pending() != 0 {
		t.Fatalf("Pending() = %d after firing, want 0", clock.Pending())
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	for _, duration := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(duration):
		default:
			t.Fatalf("After(%v) should be ready immediately", duration)
		}
	}
}

func TestFakeClockSetBackwardsFiresNothing(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(time.Minute)
	clock.Set(epoch.Add(-time.Hour))

	select {
	case <-channel:
		t.Fatal("waiter fired after moving the clock backwards")
	default:
	}
}
