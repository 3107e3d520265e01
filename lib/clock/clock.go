// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// The reconciler's poll loop and the TUI's transient notices are
// timer-driven. Production code accepts a Clock parameter instead of
// calling time.Now, time.After, or time.NewTicker directly: Real()
// provides standard library behavior, Fake() provides a deterministic
// clock that advances only when Advance is called, so tests can drive
// an arbitrary number of poll cycles without wall-clock delays.
//
// When a goroutine registers a timer or ticker on a FakeClock, use
// WaitForTimers to block until the registration has happened before
// calling Advance. This removes the race between timer registration
// and time advancement that plagues tests built on time.Sleep.
package clock

import "time"

// Clock abstracts the time operations skiff uses. Production code
// injects Real(); tests inject Fake() with deterministic control.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After. If d <= 0, the
	// channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker that delivers ticks on its C channel
	// at the specified interval. Panics if d <= 0. Equivalent to
	// time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. Read ticks from C. Call Stop when
// the Ticker is no longer needed to release resources.
//
// The C channel has capacity 1, matching time.Ticker. If the consumer
// falls behind, ticks are dropped rather than queued.
type Ticker struct {
	// C delivers ticks. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc  func()
	resetFunc func(time.Duration)
}

// Stop turns off the ticker. No more ticks will be sent on C after
// Stop returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }

// Reset adjusts the ticker to a new interval and restarts the tick
// cycle. The next tick arrives after the new duration elapses.
func (t *Ticker) Reset(d time.Duration) { t.resetFunc(d) }
