package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// errBadInterval is returned for intervals that are neither seconds nor durations.
	errBadInterval = errors.New("interval must be a positive number of seconds or a duration")
	// errBadThreshold is returned for non-positive thresholds.
	errBadThreshold = errors.New("threshold must be a positive number of lines")
)

// positionalArgs holds the values of `diffbell [interval [threshold]]`.
type positionalArgs struct {
	interval  time.Duration
	threshold int
}

func parsePositional(args []string) (positionalArgs, error) {
	var (
		result positionalArgs
		err    error
	)

	if len(args) > 0 {
		if result.interval, err = parseInterval(args[0]); err != nil {
			return positionalArgs{}, err
		}
	}

	if len(args) > 1 {
		result.threshold, err = strconv.Atoi(args[1])
		if err != nil || result.threshold <= 0 {
			return positionalArgs{}, fmt.Errorf("%w: %q", errBadThreshold, args[1])
		}
	}

	return result, nil
}

// parseInterval accepts whole seconds or a Go duration.
func parseInterval(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("%w: %q", errBadInterval, value)
		}

		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", errBadInterval, value)
	}

	return d, nil
}
