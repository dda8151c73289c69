package alert

import (
	"errors"
	"time"
)

// ErrInvariant is returned when a state is both snoozed and ringing.
var ErrInvariant = errors.New("alert state invariant violated: snoozed while ringing")

// State is the alert status at a point in time.
type State struct {
	// SnoozedAt is when the current snooze started, zero when not snoozed.
	SnoozedAt time.Time
	// Ringing indicates the alert loop should be active.
	Ringing bool
	// Snoozed indicates alerting is suppressed regardless of the metric.
	Snoozed bool
}

// Validate checks that a snoozed state never rings.
func (s State) Validate() error {
	if s.Snoozed && s.Ringing {
		return ErrInvariant
	}

	return nil
}

// SnoozeRemaining returns how much of the snooze window is left at now.
func (s State) SnoozeRemaining(now time.Time, length time.Duration) time.Duration {
	if !s.Snoozed || s.SnoozedAt.IsZero() {
		return 0
	}

	remaining := s.SnoozedAt.Add(length).Sub(now)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// RenderEvent is the immutable snapshot handed to displays.
type RenderEvent struct {
	// Sample is the last forwarded metric sample.
	Sample MetricSample
	// State is the alert state right after the transition.
	State State
}
