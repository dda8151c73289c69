package signals

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/oshokin/diffbell/internal/domain/alert"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/service/coordinator"
)

// Submitter accepts coordinator commands.
type Submitter interface {
	Submit(cmd alert.Command) error
}

// Termination lists the signals that quit the watch.
func Termination() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT}
}

// Run forwards the first termination signal to sink as a Quit command.
// Later signals are logged and ignored until ctx is done, so the coordinator
// can finish its shutdown.
func Run(ctx context.Context, sink Submitter, sigs ...os.Signal) error {
	ctx = logger.WithName(ctx, "signals")

	if len(sigs) == 0 {
		sigs = Termination()
	}

	received := make(chan os.Signal, 1)
	signal.Notify(received, sigs...)

	defer signal.Stop(received)

	quitting := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-received:
			if quitting {
				logger.WarnKV(ctx, "Already quitting, ignoring signal", "signal", sig.String())
				continue
			}

			quitting = true

			logger.InfoKV(ctx, "Received signal", "signal", sig.String())

			err := sink.Submit(alert.QuitOnSignal(sig))
			if err != nil && !errors.Is(err, coordinator.ErrStopped) {
				return err
			}
		}
	}
}

// ExitCode returns the conventional shell exit code for sig.
func ExitCode(sig os.Signal) int {
	const signalExitBase = 128

	if number, ok := sig.(syscall.Signal); ok {
		return signalExitBase + int(number)
	}

	return signalExitBase + int(syscall.SIGINT)
}
