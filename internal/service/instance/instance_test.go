package instance

import (
	"errors"
	"os"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	name string
	pid  int
}

// Pid implements ps.Process.
func (p fakeProcess) Pid() int { return p.pid }

// PPid implements ps.Process.
func (p fakeProcess) PPid() int { return 1 }

// Executable implements ps.Process.
func (p fakeProcess) Executable() string { return p.name }

// TestOthers skips this process and unrelated executables.
func TestOthers(t *testing.T) {
	t.Parallel()

	list := func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: os.Getpid(), name: "diffbell"},
			fakeProcess{pid: 4242, name: "diffbell"},
			fakeProcess{pid: 4343, name: "DIFFBELL"},
			fakeProcess{pid: 4444, name: "vim"},
		}, nil
	}

	pids, err := Others(list, "diffbell")
	require.NoError(t, err)
	require.Equal(t, []int{4242, 4343}, pids)

	_, err = Others(func() ([]ps.Process, error) { return nil, errors.New("no /proc") }, "diffbell")
	require.Error(t, err)
}

// TestOthers_RealProcessList never reports the test binary itself.
func TestOthers_RealProcessList(t *testing.T) {
	t.Parallel()

	pids, err := Others(ps.Processes, ExecutableName())
	require.NoError(t, err)
	require.NotContains(t, pids, os.Getpid())
}
