package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/service/snooze"
)

const (
	// DefaultCapacity is the size of the inbox and of both output channels.
	DefaultCapacity = 32

	// DefaultTestAlertDuration is how long a manual test alert rings.
	DefaultTestAlertDuration = 3 * time.Second
)

var (
	// ErrStalled is returned when a coordinator channel is full.
	ErrStalled = errors.New("coordinator stalled")
	// ErrStopped is returned by Submit and State once the coordinator has stopped.
	ErrStopped = errors.New("coordinator stopped")
	// errInvalidSettings is returned by New for unusable settings.
	errInvalidSettings = errors.New("invalid coordinator settings")
)

// Settings holds the immutable decision parameters.
type Settings struct {
	// Threshold is the total above which the alert rings.
	Threshold int
	// SnoozeLength is how long a snooze lasts.
	SnoozeLength time.Duration
	// TestAlertDuration is the grace period of a manual test alert.
	TestAlertDuration time.Duration
}

// Result describes why Run returned.
type Result struct {
	// Signal is the OS signal that caused the quit, nil for a user quit.
	Signal os.Signal
	// Quit is true when a Quit command was handled.
	Quit bool
}

// timerKind tells the timer callbacks apart.
type timerKind uint8

const (
	timerSnoozeExpired timerKind = iota + 1
	timerTestAlertEnded
)

// timerEvent is posted by timer callbacks back to the coordinator goroutine.
type timerEvent struct {
	generation uint64
	kind       timerKind
}

// Coordinator is the single owner of the alert State.
type Coordinator struct {
	// now returns the current time.
	now func() time.Time
	// last is the last forwarded sample, nil before the first one.
	last *alert.MetricSample
	// inbox receives external commands.
	inbox chan alert.Command
	// timers receives timer expirations.
	timers chan timerEvent
	// queries receives state snapshot requests.
	queries chan chan alert.State
	// supervisor carries commands to the alert device supervisor.
	supervisor chan alert.SupervisorCommand
	// render carries snapshots to the displays.
	render chan alert.RenderEvent
	// done is closed when Run returns.
	done chan struct{}
	// snooze clears the snooze flag after SnoozeLength.
	snooze snooze.Timer
	// testAlert ends a manual test alert.
	testAlert snooze.Timer
	// lastIdentity is the identity of the last forwarded sample.
	lastIdentity string
	// settings holds the decision parameters.
	settings Settings
	// state is the alert state.
	state alert.State
}

// New validates settings and creates a coordinator with bounded channels.
func New(settings Settings) (*Coordinator, error) {
	if settings.Threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", errInvalidSettings, settings.Threshold)
	}

	if settings.SnoozeLength <= 0 {
		return nil, fmt.Errorf("%w: snooze length must be positive, got %s", errInvalidSettings, settings.SnoozeLength)
	}

	// Test alert duration is optional.
	if settings.TestAlertDuration <= 0 {
		settings.TestAlertDuration = DefaultTestAlertDuration
	}

	return &Coordinator{
		now:        time.Now,
		inbox:      make(chan alert.Command, DefaultCapacity),
		timers:     make(chan timerEvent, DefaultCapacity),
		queries:    make(chan chan alert.State),
		supervisor: make(chan alert.SupervisorCommand, DefaultCapacity),
		render:     make(chan alert.RenderEvent, DefaultCapacity),
		done:       make(chan struct{}),
		settings:   settings,
	}, nil
}

// SupervisorCommands returns the channel read by the alert device supervisor.
// It is closed when Run returns.
func (c *Coordinator) SupervisorCommands() <-chan alert.SupervisorCommand {
	return c.supervisor
}

// RenderEvents returns the channel read by the displays. It is closed when Run returns.
func (c *Coordinator) RenderEvents() <-chan alert.RenderEvent {
	return c.render
}

// Done is closed when Run returns.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Submit enqueues cmd without blocking.
func (c *Coordinator) Submit(cmd alert.Command) error {
	// Refuse commands once Run has returned.
	select {
	case <-c.done:
		return ErrStopped
	default:
	}

	// Never block the producer, a full inbox is a fault.
	select {
	case c.inbox <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: inbox full, dropping %s", ErrStalled, cmd.Kind)
	}
}

// State returns a snapshot of the alert state, including snooze expirations
// that did not produce a render event.
func (c *Coordinator) State(ctx context.Context) (alert.State, error) {
	reply := make(chan alert.State, 1)

	// Ask the coordinator goroutine, it alone reads the state.
	select {
	case c.queries <- reply:
	case <-c.done:
		return alert.State{}, ErrStopped
	case <-ctx.Done():
		return alert.State{}, ctx.Err()
	}

	select {
	case state := <-reply:
		return state, nil
	case <-ctx.Done():
		return alert.State{}, ctx.Err()
	}
}

// Run handles commands until Quit, a fault or ctx cancellation.
// On every exit path it stops alerting, cancels timers and closes the output channels.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	ctx = logger.WithName(ctx, "coordinator")

	logger.InfoKV(ctx, "Coordinator started",
		"threshold", c.settings.Threshold,
		"snooze_length", c.settings.SnoozeLength.String())

	defer c.shutdown()

	// Main loop, one event at a time.
	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Context canceled, exiting")

			// Best effort: the supervisor stops with the same context anyway.
			_ = c.command(alert.StopAlerting)

			return Result{}, nil
		case reply := <-c.queries:
			reply <- c.state
		case event := <-c.timers:
			if err := c.handleTimer(ctx, event); err != nil {
				return Result{}, err
			}
		case cmd := <-c.inbox:
			result, err := c.handle(ctx, cmd)
			if err != nil {
				return Result{}, err
			}

			if result.Quit {
				return result, nil
			}
		}

		// Check state invariants after every event.
		if err := c.state.Validate(); err != nil {
			logger.ErrorKV(ctx, "Alert state is inconsistent", "state", c.state, "error", err)

			return Result{}, err
		}
	}
}

// handle applies one external command.
func (c *Coordinator) handle(ctx context.Context, cmd alert.Command) (Result, error) {
	logger.DebugKV(ctx, "Handling command", "command", cmd.Kind.String())

	switch cmd.Kind {
	case alert.CommandMetricUpdate:
		return Result{}, c.handleMetricUpdate(ctx, cmd.Sample)
	case alert.CommandSnooze:
		return Result{}, c.handleSnooze(ctx)
	case alert.CommandManualAlertTest:
		return Result{}, c.handleManualAlertTest(ctx)
	case alert.CommandRedraw:
		return Result{}, c.publish()
	case alert.CommandQuit:
		return c.handleQuit(ctx, cmd.Signal)
	default:
		logger.WarnKV(ctx, "Ignoring unknown command", "kind", cmd.Kind)
		return Result{}, nil
	}
}

func (c *Coordinator) handleMetricUpdate(ctx context.Context, sample alert.MetricSample) error {
	// Identical samples change nothing.
	if !alert.MateriallyDifferent(c.last, sample) {
		return nil
	}

	c.last = &sample

	// Render first, then decide on the new sample.
	if err := c.publish(); err != nil {
		return err
	}

	if err := c.decide(ctx); err != nil {
		return err
	}

	c.lastIdentity = sample.Identity

	return nil
}

func (c *Coordinator) handleSnooze(ctx context.Context) error {
	// Snoozing always silences the device, even if it was not ringing.
	c.state.Snoozed = true
	c.state.SnoozedAt = c.now()
	c.state.Ringing = false

	if err := c.command(alert.StopAlerting); err != nil {
		return err
	}

	if err := c.publish(); err != nil {
		return err
	}

	// A new snooze replaces a pending one.
	c.snooze.Schedule(c.settings.SnoozeLength, c.post(timerSnoozeExpired))

	logger.InfoKV(ctx, "Alert snoozed", "until", c.state.SnoozedAt.Add(c.settings.SnoozeLength).Format(time.Kitchen))

	// No-op while snoozed, kept so every transition ends with the same rule.
	return c.decide(ctx)
}

func (c *Coordinator) handleManualAlertTest(ctx context.Context) error {
	// The test alert bypasses the threshold and the snooze.
	if err := c.command(alert.StartAlerting); err != nil {
		return err
	}

	c.testAlert.Schedule(c.settings.TestAlertDuration, c.post(timerTestAlertEnded))

	logger.InfoKV(ctx, "Test alert started", "duration", c.settings.TestAlertDuration.String())

	return nil
}

func (c *Coordinator) handleQuit(ctx context.Context, sig os.Signal) (Result, error) {
	// Always stop: a test alert may be ringing without the flag being set.
	if err := c.command(alert.StopAlerting); err != nil {
		return Result{}, err
	}

	c.state.Ringing = false

	if sig != nil {
		logger.InfoKV(ctx, "Quitting on signal", "signal", sig.String())
	} else {
		logger.Info(ctx, "Quitting")
	}

	return Result{Signal: sig, Quit: true}, nil
}

func (c *Coordinator) handleTimer(ctx context.Context, event timerEvent) error {
	switch event.kind {
	case timerSnoozeExpired:
		// Ignore expirations of replaced or cancelled snoozes.
		if !c.snooze.Current(event.generation) {
			return nil
		}

		c.snooze.Done(event.generation)

		// Expiry only lifts the snooze. Alerting resumes on the next metric update.
		c.state.Snoozed = false
		c.state.SnoozedAt = time.Time{}

		logger.Info(ctx, "Snooze expired")
	case timerTestAlertEnded:
		// Ignore expirations of replaced test alerts.
		if !c.testAlert.Current(event.generation) {
			return nil
		}

		c.testAlert.Done(event.generation)

		if err := c.command(alert.StopAlerting); err != nil {
			return err
		}

		// Hand the device back to the threshold decision.
		if c.state.Ringing {
			if err := c.command(alert.StartAlerting); err != nil {
				return err
			}
		}

		logger.Info(ctx, "Test alert ended")
	}

	return nil
}

// decide runs the alert decision rule for the last sample.
func (c *Coordinator) decide(ctx context.Context) error {
	if c.last == nil {
		return nil
	}

	above := c.last.Above(c.settings.Threshold)

	switch {
	// Start on crossing the threshold unless snoozed.
	case above && !c.state.Ringing && !c.state.Snoozed:
		if err := c.command(alert.StartAlerting); err != nil {
			return err
		}

		c.state.Ringing = true

		logger.InfoKV(ctx, "Threshold exceeded, alerting", "total", c.last.Total, "threshold", c.settings.Threshold)
	// Stop on dropping below it or when a snooze began.
	case (!above && c.state.Ringing) || (c.state.Snoozed && c.state.Ringing):
		if err := c.command(alert.StopAlerting); err != nil {
			return err
		}

		c.state.Ringing = false

		logger.InfoKV(ctx, "Alerting stopped", "total", c.last.Total, "threshold", c.settings.Threshold)
	}

	return nil
}

// command sends to the supervisor without blocking.
func (c *Coordinator) command(cmd alert.SupervisorCommand) error {
	select {
	case c.supervisor <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: supervisor channel full, dropping %s", ErrStalled, cmd)
	}
}

// publish sends the last sample with the current state to the displays.
// It does nothing before the first sample.
func (c *Coordinator) publish() error {
	if c.last == nil {
		return nil
	}

	event := alert.RenderEvent{
		Sample: *c.last,
		State:  c.state,
	}

	select {
	case c.render <- event:
		return nil
	default:
		return fmt.Errorf("%w: render channel full", ErrStalled)
	}
}

// post returns a timer callback that reports kind back to the coordinator goroutine.
func (c *Coordinator) post(kind timerKind) func(uint64) {
	return func(generation uint64) {
		select {
		case c.timers <- timerEvent{kind: kind, generation: generation}:
		case <-c.done:
		}
	}
}

func (c *Coordinator) shutdown() {
	c.snooze.Cancel()
	c.testAlert.Cancel()
	close(c.done)
	close(c.supervisor)
	close(c.render)
}
