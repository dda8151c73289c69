//go:build unix

package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

// recordingSink collects submitted commands.
type recordingSink struct {
	err      error
	commands []alert.Command
	mu       sync.Mutex
}

// Submit implements Submitter.
func (s *recordingSink) Submit(cmd alert.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cmd)

	return s.err
}

// count returns the number of recorded commands.
func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.commands)
}

// guard keeps sig from killing the test binary while Run is not yet listening.
func guard(t *testing.T, sig os.Signal) {
	t.Helper()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	t.Cleanup(func() { signal.Stop(ch) })
}

// TestRun_ForwardsFirstSignal quits once even when the signal repeats.
func TestRun_ForwardsFirstSignal(t *testing.T) {
	t.Parallel()
	guard(t, syscall.SIGUSR1)

	sink := new(recordingSink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, sink, syscall.SIGUSR1)
	}()

	// Run registers asynchronously; keep signalling until the first one lands.
	require.Eventually(t, func() bool {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

		return sink.count() > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	require.Len(t, sink.commands, 1)
	require.Equal(t, alert.CommandQuit, sink.commands[0].Kind)
	require.Equal(t, syscall.SIGUSR1, sink.commands[0].Signal)
}

// TestRun_StalledCoordinatorIsFatal reports a full inbox.
func TestRun_StalledCoordinatorIsFatal(t *testing.T) {
	t.Parallel()
	guard(t, syscall.SIGUSR2)

	sink := &recordingSink{err: coordinator.ErrStalled}
	done := make(chan error, 1)

	go func() {
		done <- Run(context.Background(), sink, syscall.SIGUSR2)
	}()

	var err error

	require.Eventually(t, func() bool {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))

		select {
		case err = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)

	require.ErrorIs(t, err, coordinator.ErrStalled)
}

// TestExitCode follows the 128 plus signal number convention.
func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 130, ExitCode(syscall.SIGINT))
	require.Equal(t, 143, ExitCode(syscall.SIGTERM))
	require.Equal(t, 131, ExitCode(syscall.SIGQUIT))
}
