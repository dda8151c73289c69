package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/diffbell/internal/config"
)

var (
	// force overwrites an existing configuration file.
	force bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeDefaultConfig(cmd, configPath, force)
		},
	}
)

func writeDefaultConfig(cmd *cobra.Command, path string, overwrite bool) error {
	if !overwrite {
		_, err := os.Stat(path)

		switch {
		case err == nil:
			return fmt.Errorf("%s already exists, use --force to overwrite it: %w", path, fs.ErrExist)
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("check settings: %w", err)
		}
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)

	return err
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
