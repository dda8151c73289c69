package supervisor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
)

// DefaultPeriod is the delay between two repetitions of the alert effect.
const DefaultPeriod = 10 * time.Second

// Effect performs one alert, such as playing a sound.
type Effect interface {
	Play(ctx context.Context)
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc func(ctx context.Context)

// Play calls f.
func (f EffectFunc) Play(ctx context.Context) {
	f(ctx)
}

// Supervisor owns the alert ring loop.
type Supervisor struct {
	// effect is played on every repetition.
	effect Effect
	// observer is notified after each applied command.
	observer func(alert.SupervisorCommand)
	// cancel stops the current activation, nil when idle.
	cancel context.CancelFunc
	// loops tracks ring loops that have not returned yet.
	loops sync.WaitGroup
	// period is the delay between repetitions.
	period time.Duration
	// activation numbers activations for logs.
	activation uint64
	// active mirrors cancel != nil for readers on other goroutines.
	active atomic.Bool
}

// Option configures the Supervisor.
type Option func(*Supervisor)

// WithPeriod overrides the ring period.
func WithPeriod(period time.Duration) Option {
	return func(s *Supervisor) {
		if period > 0 {
			s.period = period
		}
	}
}

// WithObserver registers a callback invoked after each command is applied.
func WithObserver(observer func(alert.SupervisorCommand)) Option {
	return func(s *Supervisor) {
		s.observer = observer
	}
}

// New creates an idle supervisor.
func New(effect Effect, opts ...Option) *Supervisor {
	s := &Supervisor{
		effect: effect,
		period: DefaultPeriod,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Active reports whether an activation is running.
func (s *Supervisor) Active() bool {
	return s.active.Load()
}

// Run applies commands until the channel is closed or ctx is done.
// The active activation is cancelled and all ring loops are awaited before Run returns.
func (s *Supervisor) Run(ctx context.Context, commands <-chan alert.SupervisorCommand) error {
	ctx = logger.WithName(ctx, "supervisor")

	defer func() {
		s.stop(ctx)
		s.loops.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Context canceled, exiting")
			return nil
		case command, ok := <-commands:
			if !ok {
				logger.Debug(ctx, "Command channel closed, exiting")
				return nil
			}

			if err := s.apply(ctx, command); err != nil {
				return err
			}
		}
	}
}

func (s *Supervisor) apply(ctx context.Context, command alert.SupervisorCommand) error {
	switch command {
	case alert.StartAlerting:
		s.start(ctx)
	case alert.StopAlerting:
		s.stop(ctx)
	default:
		return fmt.Errorf("unknown supervisor command %d", command)
	}

	if s.observer != nil {
		s.observer(command)
	}

	return nil
}

// start cancels the current activation and begins a new one.
func (s *Supervisor) start(ctx context.Context) {
	s.stop(ctx)

	activationCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.activation++
	s.active.Store(true)

	logger.DebugKV(ctx, "Alerting started", "activation", s.activation)

	s.loops.Add(1)

	go s.ring(ctx, activationCtx)
}

// stop cancels the current activation. It is a no-op when idle.
func (s *Supervisor) stop(ctx context.Context) {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil
	s.active.Store(false)

	logger.DebugKV(ctx, "Alerting stopped", "activation", s.activation)
}

// ring plays the effect immediately and then once per period until activationCtx is done.
// The effect gets the parent context so that a play in flight may finish after cancellation.
func (s *Supervisor) ring(parent, activationCtx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		if activationCtx.Err() != nil {
			return
		}

		s.play(parent)

		select {
		case <-activationCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

// play runs the effect and keeps a panicking effect from taking the process down.
func (s *Supervisor) play(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Alert effect panicked", "panic", r)
		}
	}()

	s.effect.Play(ctx)
}
