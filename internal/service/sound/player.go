package sound

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/oshokin/diffbell/internal/logger"
)

const (
	// bell is the ASCII BEL control character.
	bell = "\a"

	// paplayFullVolume is 100% volume for paplay.
	paplayFullVolume = 65536

	// BuiltinFilename is the name the built-in sound is written under.
	BuiltinFilename = "builtin-alert.wav"

	// soundDirPermissions are the permissions of a created sound directory.
	soundDirPermissions = 0o700
	// soundFilePermissions are the permissions of the written built-in sound.
	soundFilePermissions = 0o600
)

// builtinSound is played when no sound file is configured or it cannot be played.
//
//go:embed alert.wav
var builtinSound []byte

var (
	// ErrUnsupportedOS indicates the current OS has no known sound player.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrNoPlayer indicates none of the known players is installed.
	ErrNoPlayer = errors.New("no sound player found")
)

// Runner executes a player command to completion.
type Runner func(ctx context.Context, name string, args ...string) error

// Player plays a sound file, falling back to the terminal bell.
type Player struct {
	// run executes the player.
	run Runner
	// lookPath resolves a binary name.
	lookPath func(string) (string, error)
	// bell receives BEL when falling back, nil for the controlling terminal.
	bell io.Writer
	// path is the sound file, empty for the built-in sound.
	path string
	// dir receives the built-in sound file.
	dir string
	// builtinPath is set once the built-in sound is on disk.
	builtinPath string
	// builtinErr is why the built-in sound could not be written.
	builtinErr error
	// builtinOnce writes the built-in sound at most once.
	builtinOnce sync.Once
	// goos selects the player commands.
	goos string
	// volume is the playback volume between 0 and 1.
	volume float64
	// mu serializes writes to bell.
	mu sync.Mutex
}

// Option configures the Player.
type Option func(*Player)

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(p *Player) {
		if run != nil {
			p.run = run
		}
	}
}

// WithBell sets where the terminal bell is written.
func WithBell(w io.Writer) Option {
	return func(p *Player) {
		if w != nil {
			p.bell = w
		}
	}
}

// WithSoundDir sets the directory the built-in sound is written to.
func WithSoundDir(dir string) Option {
	return func(p *Player) {
		if dir != "" {
			p.dir = dir
		}
	}
}

// New creates a Player for the sound file at path with volume in [0, 1].
// An empty path plays the built-in sound.
func New(path string, volume float64, opts ...Option) *Player {
	p := &Player{
		run:      execRunner,
		lookPath: exec.LookPath,
		path:     path,
		dir:      filepath.Join(os.TempDir(), "diffbell"),
		goos:     runtime.GOOS,
		volume:   volume,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Play plays the sound once and blocks until it ends.
// The configured file comes first, then the built-in sound, then the terminal bell.
func (p *Player) Play(ctx context.Context) {
	if p.path != "" {
		err := p.playFile(ctx, p.path)
		if err == nil || ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrNoPlayer) || errors.Is(err, ErrUnsupportedOS) {
			logger.WarnKV(ctx, "Sound playback failed, ringing the bell", "sound", p.path, "error", err)
			p.Bell()

			return
		}

		logger.WarnKV(ctx, "Sound playback failed, playing the built-in sound", "sound", p.path, "error", err)
	}

	path, err := p.builtin()
	if err == nil {
		err = p.playFile(ctx, path)
	}

	if err == nil || ctx.Err() != nil {
		return
	}

	logger.WarnKV(ctx, "Built-in sound failed, ringing the bell", "error", err)
	p.Bell()
}

// Bell writes BEL to the terminal.
func (p *Player) Bell() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bell != nil {
		_, _ = io.WriteString(p.bell, bell)
		return
	}

	// Stdout may be redirected, the controlling terminal is not.
	terminal, err := openTerminal(p.goos)
	if err != nil {
		_, _ = io.WriteString(os.Stderr, bell)
		return
	}

	defer func() {
		_ = terminal.Close()
	}()

	_, _ = io.WriteString(terminal, bell)
}

// builtin writes the built-in sound under dir once and returns its path.
func (p *Player) builtin() (string, error) {
	p.builtinOnce.Do(func() {
		p.builtinPath, p.builtinErr = writeBuiltin(p.dir)
	})

	return p.builtinPath, p.builtinErr
}

func writeBuiltin(dir string) (string, error) {
	if err := os.MkdirAll(dir, soundDirPermissions); err != nil {
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	// Write next to the target and rename, another process may be playing it.
	temp, err := os.CreateTemp(dir, "alert-*.wav")
	if err != nil {
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	defer func() {
		_ = os.Remove(temp.Name())
	}()

	if _, err = temp.Write(builtinSound); err != nil {
		_ = temp.Close()
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	if err = temp.Close(); err != nil {
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	if err = os.Chmod(temp.Name(), soundFilePermissions); err != nil {
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	path := filepath.Join(dir, BuiltinFilename)
	if err = os.Rename(temp.Name(), path); err != nil {
		return "", fmt.Errorf("built-in sound: %w", err)
	}

	return path, nil
}

func (p *Player) playFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound file: %w", err)
	}

	candidates, err := p.commands(path)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		if _, err = p.lookPath(candidate[0]); err != nil {
			continue
		}

		if err = p.run(ctx, candidate[0], candidate[1:]...); err != nil {
			return fmt.Errorf("%s: %w", candidate[0], err)
		}

		return nil
	}

	return ErrNoPlayer
}

// commands lists player invocations for the current OS in order of preference.
func (p *Player) commands(path string) ([][]string, error) {
	osName := strings.ToLower(p.goos)

	switch {
	case strings.Contains(osName, "darwin"):
		return [][]string{
			{"afplay", "-v", strconv.FormatFloat(p.volume, 'f', 2, 64), path},
		}, nil
	case strings.Contains(osName, "linux"):
		return [][]string{
			{"paplay", "--volume=" + strconv.Itoa(int(p.volume*paplayFullVolume)), path},
			{"aplay", "-q", path},
		}, nil
	case strings.Contains(osName, "windows"):
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", strings.ReplaceAll(path, "'", "''"))

		return [][]string{
			{"powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s: %w", p.goos, ErrUnsupportedOS)
	}
}

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// openTerminal opens the controlling terminal for writing.
func openTerminal(goos string) (*os.File, error) {
	name := "/dev/tty"
	if strings.Contains(strings.ToLower(goos), "windows") {
		name = "CONOUT$"
	}

	return os.OpenFile(name, os.O_WRONLY, 0)
}
