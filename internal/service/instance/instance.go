package instance

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/diffbell/internal/logger"
)

// Lister returns the running processes.
type Lister func() ([]ps.Process, error)

// Others returns the PIDs of processes, other than this one, whose executable is name.
func Others(list Lister, name string) ([]int, error) {
	processList, err := list()
	if err != nil {
		return nil, err
	}

	var (
		thisProcessID = os.Getpid()
		pids          []int
	)

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !strings.EqualFold(process.Executable(), name) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// ExecutableName returns the base name of the running binary, "diffbell" when unknown.
func ExecutableName() string {
	path, err := os.Executable()
	if err != nil {
		return "diffbell" + executableExtension()
	}

	return filepath.Base(path)
}

// WarnIfRunning logs a warning when another diffbell process is running.
// Failures to list processes are logged at debug level only.
func WarnIfRunning(ctx context.Context) {
	name := ExecutableName()

	pids, err := Others(ps.Processes, name)
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)
		return
	}

	if len(pids) > 0 {
		logger.WarnKV(ctx, "Another diffbell is already running", "executable", name, "pids", pids)
	}
}

// executableExtension returns ".exe" on Windows and "" elsewhere.
func executableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}
