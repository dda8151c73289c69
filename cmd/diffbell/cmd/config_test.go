package cmd

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/diffbell/internal/config"
)

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	var (
		out  bytes.Buffer
		cmd  = &cobra.Command{}
		path = filepath.Join(t.TempDir(), "nested", config.DefaultConfigFilename)
	)

	cmd.SetOut(&out)

	require.NoError(t, writeDefaultConfig(cmd, path, false))
	require.Contains(t, out.String(), path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultThreshold, loaded.Threshold)
	require.Equal(t, config.DefaultControlAddress, loaded.ControlAddress)

	require.ErrorIs(t, writeDefaultConfig(cmd, path, false), fs.ErrExist)
	require.NoError(t, writeDefaultConfig(cmd, path, true))
}
