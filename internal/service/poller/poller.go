package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/repository/gitdiff"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

// DefaultInterval is the delay between two samples.
const DefaultInterval = 10 * time.Second

// Source produces metric samples.
type Source interface {
	Sample(ctx context.Context, previousIdentity string) (alert.MetricSample, error)
}

// Submitter accepts coordinator commands.
type Submitter interface {
	Submit(cmd alert.Command) error
}

// Poller drives a Source on a ticker.
type Poller struct {
	// source produces samples.
	source Source
	// sink receives MetricUpdate commands.
	sink Submitter
	// observer sees every poll outcome.
	observer func(alert.MetricSample, error)
	// identity is the identity of the last successful sample.
	identity string
	// interval is the delay between polls.
	interval time.Duration
}

// Option configures the Poller.
type Option func(*Poller)

// WithInterval overrides the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithObserver registers a callback invoked after every poll.
func WithObserver(observer func(alert.MetricSample, error)) Option {
	return func(p *Poller) {
		p.observer = observer
	}
}

// New creates a poller.
func New(source Source, sink Submitter, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		sink:     sink,
		interval: DefaultInterval,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls immediately and then on every tick until ctx is done.
// Sampling failures are logged and retried on the next tick; a rejected
// submission is returned because it means the coordinator stalled.
func (p *Poller) Run(ctx context.Context) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "poller")

	logger.InfoKV(ctx, "Polling working tree", "interval", p.interval.String())

	// Setup polling ticker with the configured interval.
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Main polling loop, the first sample is taken without waiting.
	for {
		err := p.poll(ctx)

		switch {
		case errors.Is(err, coordinator.ErrStopped):
			logger.Debug(ctx, "Coordinator stopped, exiting")
			return nil
		case err != nil:
			return err
		}

		// Wait for the next tick or cancellation.
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// poll takes one sample and submits it. Only submission errors are returned.
func (p *Poller) poll(ctx context.Context) error {
	// Measure the working tree against the last known identity.
	sample, err := p.source.Sample(ctx, p.identity)

	// Report every outcome, failures included.
	if p.observer != nil {
		p.observer(sample, err)
	}

	// Failed samples are dropped and the coordinator keeps the last one.
	if err != nil {
		// Cancellation during shutdown is not a failure.
		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, gitdiff.ErrNoRepository) {
			logger.WarnKV(ctx, "Not inside a git repository, keeping last sample", "error", err)
		} else {
			logger.ErrorKV(ctx, "Sampling failed, keeping last sample", "error", err)
		}

		return nil
	}

	// Remember the identity to detect commits next time.
	p.identity = sample.Identity

	logger.DebugKV(ctx, "Sampled working tree",
		"insertions", sample.Insertions,
		"deletions", sample.Deletions,
		"identity", sample.ShortIdentity())

	// Hand the sample to the coordinator.
	if err = p.sink.Submit(alert.MetricUpdate(sample)); err != nil {
		return fmt.Errorf("submit metric update: %w", err)
	}

	return nil
}
