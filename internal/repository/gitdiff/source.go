package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/oshokin/diffbell/internal/domain/alert"
)

// Runner executes git with args inside dir and returns its standard output.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

var (
	// ErrNoRepository is returned when the directory is not inside a git working tree.
	ErrNoRepository = errors.New("not a git repository")

	insertionsPattern = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsPattern  = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// Source samples a working tree.
type Source struct {
	// run executes git.
	run Runner
	// dir is the working tree.
	dir string
	// includeStaged diffs against HEAD instead of the index.
	includeStaged bool
}

// Option configures the Source.
type Option func(*Source)

// WithRunner replaces the git runner, mostly for tests.
func WithRunner(run Runner) Option {
	return func(s *Source) {
		if run != nil {
			s.run = run
		}
	}
}

// WithStaged counts staged changes as well.
func WithStaged(includeStaged bool) Option {
	return func(s *Source) {
		s.includeStaged = includeStaged
	}
}

// New creates a Source for dir.
func New(dir string, opts ...Option) *Source {
	s := &Source{
		run: ExecRunner,
		dir: filepath.Clean(dir),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the working tree being measured.
func (s *Source) Dir() string {
	return s.dir
}

// Sample measures the working tree. previousIdentity is copied into the sample.
func (s *Source) Sample(ctx context.Context, previousIdentity string) (alert.MetricSample, error) {
	identity, err := s.identity(ctx)
	if err != nil {
		return alert.MetricSample{}, err
	}

	args := []string{"diff", "--shortstat"}

	switch {
	case s.includeStaged && identity != "":
		args = []string{"diff", "HEAD", "--shortstat"}
	case s.includeStaged:
		// No commit yet: everything staged is new.
		args = []string{"diff", "--cached", "--shortstat"}
	}

	output, err := s.run(ctx, s.dir, args...)
	if err != nil {
		return alert.MetricSample{}, classify("git diff", err)
	}

	insertions, deletions, err := ParseShortstat(string(output))
	if err != nil {
		return alert.MetricSample{}, err
	}

	return alert.NewSample(insertions, deletions, identity, previousIdentity), nil
}

// identity returns the HEAD commit, or an empty string before the first commit.
func (s *Source) identity(ctx context.Context) (string, error) {
	output, err := s.run(ctx, s.dir, "rev-parse", "HEAD")
	if err == nil {
		return strings.TrimSpace(string(output)), nil
	}

	err = classify("git rev-parse", err)
	if errors.Is(err, ErrNoRepository) {
		return "", err
	}

	if unbornHead(err) {
		return "", nil
	}

	return "", err
}

// ParseShortstat extracts insertion and deletion counts from `git diff --shortstat` output.
// Empty output means a clean tree.
func ParseShortstat(output string) (int, int, error) {
	insertions, err := capture(insertionsPattern, output)
	if err != nil {
		return 0, 0, fmt.Errorf("parse insertions: %w", err)
	}

	deletions, err := capture(deletionsPattern, output)
	if err != nil {
		return 0, 0, fmt.Errorf("parse deletions: %w", err)
	}

	return insertions, deletions, nil
}

func capture(pattern *regexp.Regexp, output string) (int, error) {
	match := pattern.FindStringSubmatch(output)
	if match == nil {
		return 0, nil
	}

	return strconv.Atoi(match[1])
}

// ExecRunner runs the git binary found in PATH.
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	return cmd.Output()
}

// classify maps git failures to package errors and keeps stderr in the message.
func classify(operation string, err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	stderr := string(bytes.TrimSpace(exitErr.Stderr))
	if strings.Contains(strings.ToLower(stderr), "not a git repository") {
		return fmt.Errorf("%s: %w", operation, ErrNoRepository)
	}

	return fmt.Errorf("%s: %w: %s", operation, err, stderr)
}

// unbornHead reports whether err comes from asking for HEAD before the first commit.
func unbornHead(err error) bool {
	message := err.Error()

	return strings.Contains(message, "ambiguous argument 'HEAD'") ||
		strings.Contains(message, "unknown revision")
}
