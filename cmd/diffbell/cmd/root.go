package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/oshokin/diffbell/internal/config"
	"github.com/oshokin/diffbell/internal/service/watch"
	"github.com/oshokin/diffbell/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// threshold overrides the configured threshold.
	threshold int
	// interval overrides the configured sampling interval.
	interval time.Duration
	// noTUI prints plain lines instead of the dashboard.
	noTUI bool
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd watches the current repository.
	rootCmd = &cobra.Command{
		Use:   "diffbell [interval [threshold]]",
		Short: "Ring a bell when uncommitted changes pile up.",
		Long: `Watches a git working tree and rings an alert once the number of changed
lines exceeds the threshold. Press space to snooze the alert, b to test it and q to quit.

The optional positional arguments override the sampling interval (seconds or a
duration such as 30s) and the threshold (changed lines).`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			positional, err := parsePositional(args)
			if err != nil {
				return err
			}

			options := &watch.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
				Interval:   interval,
				Threshold:  threshold,
				Headless:   noTUI || !isatty.IsTerminal(os.Stdout.Fd()),
			}

			if positional.interval > 0 {
				options.Interval = positional.interval
			}

			if positional.threshold > 0 {
				options.Threshold = positional.threshold
			}

			// Signals are routed to the coordinator, not to this context.
			return watch.Run(context.Background(), options)
		},
	}
)

// Execute runs the diffbell CLI and exits with the status of the run.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	os.Exit(exitCode(rootCmd.Execute()))
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var terminated *watch.TerminatedError
	if errors.As(err, &terminated) {
		return terminated.ExitCode()
	}

	_, _ = fmt.Fprintln(os.Stderr, "Error:", err)

	return 1
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to configuration file")

	rootCmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "changed lines that trigger the alert")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "how often to sample the repository")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "print one line per change instead of the dashboard")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
