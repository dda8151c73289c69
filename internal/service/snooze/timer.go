package snooze

import (
	"sync"
	"time"
)

// Timer runs at most one pending callback.
type Timer struct {
	// timer is the pending runtime timer, nil when idle.
	timer *time.Timer
	// generation identifies the latest Schedule or Cancel.
	generation uint64
	// mu protects the fields above.
	mu sync.Mutex
}

// Schedule cancels any pending callback and arranges for fire to run after delay.
// It returns the generation passed to fire.
func (t *Timer) Schedule(delay time.Duration, fire func(generation uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.generation++

	generation := t.generation
	t.timer = time.AfterFunc(delay, func() {
		fire(generation)
	})

	return generation
}

// Cancel drops the pending callback, if any. A callback that already started
// still runs but carries a stale generation.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.generation++
}

// Current reports whether generation belongs to the latest Schedule.
func (t *Timer) Current(generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.timer != nil && generation == t.generation
}

// Pending reports whether a callback is scheduled and not cancelled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.timer != nil
}

// Done marks generation as fired. It is a no-op for stale generations.
func (t *Timer) Done(generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if generation == t.generation {
		t.timer = nil
	}
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
