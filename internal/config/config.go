package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the diffbell commands.
type Config struct {
	// Threshold is the number of changed lines above which the alert rings.
	Threshold int `yaml:"threshold"`
	// Interval is the delay between two samples of the working tree.
	Interval time.Duration `yaml:"interval"`
	// SnoozeLength is how long a snooze silences the alert.
	SnoozeLength time.Duration `yaml:"snooze_length"`
	// RingPeriod is the delay between two repetitions of the alert effect.
	RingPeriod time.Duration `yaml:"ring_period"`
	// TestAlertDuration is how long a manual test alert rings.
	TestAlertDuration time.Duration `yaml:"test_alert_duration"`
	// Sound is the sound file played by the alert, relative to the config directory.
	// Empty plays the built-in sound.
	Sound string `yaml:"sound"`
	// Volume is the playback volume between 0 and 1.
	Volume float64 `yaml:"volume"`
	// Repository is the working tree to watch.
	Repository string `yaml:"repository"`
	// IncludeStaged counts staged changes as well as unstaged ones.
	IncludeStaged bool `yaml:"include_staged"`
	// StatusFile is an optional JSON file rewritten on every render.
	StatusFile string `yaml:"status_file"`
	// ControlAddress is the gRPC remote control listen address, empty disables it.
	ControlAddress string `yaml:"control_addr"`
	// MetricsAddress is the Prometheus listen address, empty disables it.
	MetricsAddress string `yaml:"metrics_addr"`
	// NATSURL enables publishing alert transitions to NATS when set.
	NATSURL string `yaml:"nats_url"`
	// NATSSubject is the subject alert transitions are published to.
	NATSSubject string `yaml:"nats_subject"`
	// LogFile is where logs go while the dashboard owns the terminal.
	LogFile string `yaml:"log_file"`
	// LogLevel is the minimum log level.
	LogLevel string `yaml:"log_level"`
	// Dir is the directory the settings were loaded from. It is not persisted.
	Dir string `yaml:"-"`
}

const (
	// DefaultDirName is the directory under ~/.config holding diffbell files.
	DefaultDirName = "diffbell"

	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "config.yaml"

	// DefaultLogFilename is the default log filename.
	DefaultLogFilename = "diffbell.log"

	// DefaultThreshold is the number of changed lines that triggers the alert.
	DefaultThreshold = 100

	// DefaultInterval is the default sampling interval.
	DefaultInterval = 10 * time.Second

	// DefaultSnoozeLength is the default snooze window.
	DefaultSnoozeLength = 5 * time.Minute

	// DefaultRingPeriod is the default delay between alert repetitions.
	DefaultRingPeriod = 10 * time.Second

	// DefaultTestAlertDuration is the grace period of a manual test alert.
	DefaultTestAlertDuration = 3 * time.Second

	// DefaultVolume is full volume.
	DefaultVolume = 1.0

	// DefaultControlAddress is the loopback remote control address.
	DefaultControlAddress = "127.0.0.1:7471"

	// DefaultNATSSubject is the default subject for alert transitions.
	DefaultNATSSubject = "diffbell.alerts"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultTimeout is the default duration for remote control calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	// defaultDirPermissions is used when the settings directory is created.
	defaultDirPermissions = 0o750
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeThreshold is returned for thresholds below zero.
	errNegativeThreshold = errors.New("threshold must be positive")
	// errNegativeDuration is returned for negative durations.
	errNegativeDuration = errors.New("durations must be positive")
	// errVolumeRange is returned for volumes outside [0, 1].
	errVolumeRange = errors.New("volume must be between 0 and 1")
)

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Threshold:         DefaultThreshold,
		Interval:          DefaultInterval,
		SnoozeLength:      DefaultSnoozeLength,
		RingPeriod:        DefaultRingPeriod,
		TestAlertDuration: DefaultTestAlertDuration,
		Volume:            DefaultVolume,
		Repository:        ".",
		ControlAddress:    DefaultControlAddress,
		NATSSubject:       DefaultNATSSubject,
		LogLevel:          DefaultLogLevel,
		Dir:               DefaultDir(),
	}
}

// DefaultDir returns ~/.config/diffbell, or a temp directory without a home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}

	return filepath.Join(home, ".config", DefaultDirName)
}

// DefaultPath returns the default settings path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), DefaultConfigFilename)
}

// Load reads configuration from the provided path on top of the defaults and validates it.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.Dir = filepath.Dir(filepath.Clean(path))

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Keep defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the settings to the provided path, creating its directory.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultPath()
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	path = filepath.Clean(path)
	if err = os.MkdirAll(filepath.Dir(path), defaultDirPermissions); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	// Restrict permissions.
	if err = os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills zero values with defaults.
//
//nolint:cyclop // A flat list of field checks reads best.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Threshold < 0 {
		return fmt.Errorf("%w: %d", errNegativeThreshold, settings.Threshold)
	}

	if settings.Threshold == 0 {
		settings.Threshold = DefaultThreshold
	}

	durations := []struct {
		value    *time.Duration
		fallback time.Duration
		name     string
	}{
		{&settings.Interval, DefaultInterval, "interval"},
		{&settings.SnoozeLength, DefaultSnoozeLength, "snooze_length"},
		{&settings.RingPeriod, DefaultRingPeriod, "ring_period"},
		{&settings.TestAlertDuration, DefaultTestAlertDuration, "test_alert_duration"},
	}

	for _, d := range durations {
		if *d.value < 0 {
			return fmt.Errorf("%w: %s is %s", errNegativeDuration, d.name, *d.value)
		}

		if *d.value == 0 {
			*d.value = d.fallback
		}
	}

	if settings.Volume < 0 || settings.Volume > 1 {
		return fmt.Errorf("%w: %v", errVolumeRange, settings.Volume)
	}

	if settings.Volume == 0 {
		settings.Volume = DefaultVolume
	}

	if settings.Repository == "" {
		settings.Repository = "."
	}

	if settings.NATSSubject == "" {
		settings.NATSSubject = DefaultNATSSubject
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if settings.Dir == "" {
		settings.Dir = DefaultDir()
	}

	for _, address := range []string{settings.ControlAddress, settings.MetricsAddress} {
		if address == "" {
			continue
		}

		if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", address, err)
		}
	}

	if settings.NATSURL != "" {
		if _, err := url.ParseRequestURI(settings.NATSURL); err != nil {
			return fmt.Errorf("invalid NATS URL: %w", err)
		}
	}

	return nil
}

// SoundPath returns the sound file path resolved against the settings directory.
func (c *Config) SoundPath() string {
	if c.Sound == "" || filepath.IsAbs(c.Sound) {
		return c.Sound
	}

	return filepath.Join(c.Dir, c.Sound)
}

// LogPath returns the log file path, defaulting next to the settings.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}

	return filepath.Join(c.Dir, DefaultLogFilename)
}
