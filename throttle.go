// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"sync"
	"time"
)

// DefaultFrameInterval paces input-driven redraws at about 60 Hz.
const DefaultFrameInterval = time.Second / 60

// Throttle coalesces requests so fn runs at most once per interval.
// Requests arriving while a run is pending merge into that run. fn runs on
// a timer goroutine, never concurrently with itself.
type Throttle struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   *time.Timer
	last    time.Time
	pending bool
	stopped bool
	running sync.Mutex
}

// NewThrottle returns a throttle running fn at most once per interval.
// A non-positive interval means DefaultFrameInterval.
func NewThrottle(interval time.Duration, fn func()) *Throttle {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Throttle{interval: interval, fn: fn}
}

// Trigger requests a run. It never blocks on fn.
func (t *Throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.pending {
		return
	}
	t.pending = true
	wait := max(t.interval-time.Since(t.last), 0)
	if t.timer == nil {
		t.timer = time.AfterFunc(wait, t.fire)
	} else {
		t.timer.Reset(wait)
	}
}

func (t *Throttle) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.last = time.Now()
	t.mu.Unlock()

	t.running.Lock()
	defer t.running.Unlock()
	t.fn()
}

// Stop cancels any pending run. Later Triggers are ignored.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
}
