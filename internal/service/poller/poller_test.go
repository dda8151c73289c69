package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/repository/gitdiff"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

// scriptedSource returns its results in order and repeats the last one.
type scriptedSource struct {
	results  []result
	previous []string
	mu       sync.Mutex
}

// result is one scripted Sample outcome.
type result struct {
	err    error
	sample alert.MetricSample
}

// Sample pops the next scripted outcome and records the previous identity it was given.
func (s *scriptedSource) Sample(_ context.Context, previousIdentity string) (alert.MetricSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.previous = append(s.previous, previousIdentity)

	next := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}

	if next.err != nil {
		return alert.MetricSample{}, next.err
	}

	next.sample.PreviousIdentity = previousIdentity

	return next.sample, nil
}

// recordingSink collects submitted commands.
type recordingSink struct {
	err      error
	commands []alert.Command
	mu       sync.Mutex
}

// Submit records cmd or fails with the configured error.
func (s *recordingSink) Submit(cmd alert.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.commands = append(s.commands, cmd)

	return nil
}

// snapshot copies the recorded commands.
func (s *recordingSink) snapshot() []alert.Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]alert.Command(nil), s.commands...)
}

// TestPoller_PollsImmediatelyThenOnInterval checks timing and previous identity tracking.
func TestPoller_PollsImmediatelyThenOnInterval(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		source := &scriptedSource{
			results: []result{
				{sample: alert.NewSample(1, 0, "aaa", "")},
				{sample: alert.NewSample(2, 0, "aaa", "")},
				{sample: alert.NewSample(0, 0, "bbb", "")},
			},
		}
		sink := new(recordingSink)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- New(source, sink, WithInterval(10*time.Second)).Run(ctx)
		}()

		synctest.Wait()
		require.Len(t, sink.snapshot(), 1)

		time.Sleep(10 * time.Second)
		synctest.Wait()
		require.Len(t, sink.snapshot(), 2)

		time.Sleep(10 * time.Second)
		synctest.Wait()

		commands := sink.snapshot()
		require.Len(t, commands, 3)
		require.Equal(t, alert.CommandMetricUpdate, commands[2].Kind)
		require.True(t, commands[2].Sample.Committed())
		require.Equal(t, []string{"", "aaa", "aaa"}, source.previous)

		cancel()
		require.NoError(t, <-done)
	})
}

// TestPoller_FailSoft keeps running through sampling errors without submitting anything.
func TestPoller_FailSoft(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			observed int
			failures int
		)

		source := &scriptedSource{
			results: []result{
				{err: gitdiff.ErrNoRepository},
				{err: errors.New("git exploded")},
				{sample: alert.NewSample(5, 5, "aaa", "")},
			},
		}
		sink := new(recordingSink)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		poller := New(source, sink, WithInterval(time.Second), WithObserver(func(_ alert.MetricSample, err error) {
			observed++

			if err != nil {
				failures++
			}
		}))

		go func() {
			done <- poller.Run(ctx)
		}()

		time.Sleep(1500 * time.Millisecond)
		synctest.Wait()
		require.Empty(t, sink.snapshot())

		time.Sleep(time.Second)
		synctest.Wait()
		require.Len(t, sink.snapshot(), 1)

		cancel()
		require.NoError(t, <-done)
		require.Equal(t, 3, observed)
		require.Equal(t, 2, failures)
	})
}

// TestPoller_StalledCoordinatorIsFatal returns the submission error.
func TestPoller_StalledCoordinatorIsFatal(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		source := &scriptedSource{results: []result{{sample: alert.NewSample(1, 1, "aaa", "")}}}
		sink := &recordingSink{err: coordinator.ErrStalled}

		err := New(source, sink).Run(context.Background())
		require.ErrorIs(t, err, coordinator.ErrStalled)
	})
}

// TestPoller_StoppedCoordinatorEndsQuietly exits without error once the coordinator is gone.
func TestPoller_StoppedCoordinatorEndsQuietly(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		source := &scriptedSource{results: []result{{sample: alert.NewSample(1, 1, "aaa", "")}}}
		sink := &recordingSink{err: coordinator.ErrStopped}

		require.NoError(t, New(source, sink).Run(context.Background()))
	})
}
