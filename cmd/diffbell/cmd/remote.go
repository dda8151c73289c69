package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/oshokin/diffbell/internal/config"
	"github.com/oshokin/diffbell/internal/logger"
	"github.com/oshokin/diffbell/internal/service/common"
	"github.com/oshokin/diffbell/internal/ui"
)

var (
	// address overrides the configured remote control address.
	address string
	// timeout bounds each remote call.
	timeout time.Duration

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the latest sample of a running watch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client, settings *config.Config) error {
				snapshot, err := client.GetStatus(ctx)
				if err != nil {
					return err
				}

				printer := ui.NewPrinter(cmd.OutOrStdout(), ui.Settings{
					Threshold:    snapshot.Threshold,
					SnoozeLength: settings.SnoozeLength,
				})

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (updated %s)\n",
					printer.Line(snapshot.Event),
					humanize.Time(snapshot.UpdatedAt),
				)

				return err
			})
		},
	}

	snoozeCmd = &cobra.Command{
		Use:   "snooze",
		Short: "Snooze the alert of a running watch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client, settings *config.Config) error {
				if err := client.Snooze(ctx); err != nil {
					return err
				}

				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Snoozed for %s\n", settings.SnoozeLength)

				return err
			})
		},
	}

	ringCmd = &cobra.Command{
		Use:   "ring",
		Short: "Ring the alert of a running watch once to test it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *common.Client, _ *config.Config) error {
				return client.TestAlert(ctx)
			})
		},
	}
)

// withClient loads the settings, dials the running watch and calls fn.
func withClient(
	cmd *cobra.Command,
	fn func(ctx context.Context, client *common.Client, settings *config.Config) error,
) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ctx = logger.WithName(ctx, "diffbell-"+cmd.Name())

	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	target := settings.ControlAddress
	if address != "" {
		target = address
	}

	options := []common.Option{common.WithCallTimeout(timeout)}

	actor, err := common.DetectActor()
	if err != nil {
		logger.DebugKV(ctx, "Unable to detect the caller", "error", err)
	} else {
		options = append(options, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, target, options...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return fn(ctx, client, settings)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, remote := range []*cobra.Command{statusCmd, snoozeCmd, ringCmd} {
		remote.Flags().StringVarP(&address, "address", "a", "", "remote control address of the running watch")
		remote.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "timeout of the remote call")
		rootCmd.AddCommand(remote)
	}
}
