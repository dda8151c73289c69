package alert

import "os"

// CommandKind enumerates the inputs accepted by the coordinator.
type CommandKind uint8

const (
	// CommandMetricUpdate carries a fresh sample from the metric source.
	CommandMetricUpdate CommandKind = iota + 1
	// CommandSnooze silences the alert for the snooze length.
	CommandSnooze
	// CommandManualAlertTest rings once for the test grace period.
	CommandManualAlertTest
	// CommandRedraw asks for the last sample to be rendered again.
	CommandRedraw
	// CommandQuit stops the coordinator.
	CommandQuit
)

// String returns a readable name for logs.
func (k CommandKind) String() string {
	switch k {
	case CommandMetricUpdate:
		return "metric_update"
	case CommandSnooze:
		return "snooze"
	case CommandManualAlertTest:
		return "manual_alert_test"
	case CommandRedraw:
		return "redraw"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is a single input for the coordinator.
type Command struct {
	// Signal is set on quit commands caused by an OS signal.
	Signal os.Signal
	// Sample is set on metric updates.
	Sample MetricSample
	// Kind selects the handler.
	Kind CommandKind
}

// MetricUpdate wraps a sample.
func MetricUpdate(sample MetricSample) Command {
	return Command{Kind: CommandMetricUpdate, Sample: sample}
}

// Snooze requests a snooze.
func Snooze() Command {
	return Command{Kind: CommandSnooze}
}

// ManualAlertTest requests a test ring.
func ManualAlertTest() Command {
	return Command{Kind: CommandManualAlertTest}
}

// Redraw requests a repaint.
func Redraw() Command {
	return Command{Kind: CommandRedraw}
}

// Quit requests a user-initiated shutdown.
func Quit() Command {
	return Command{Kind: CommandQuit}
}

// QuitOnSignal requests a shutdown caused by sig.
func QuitOnSignal(sig os.Signal) Command {
	return Command{Kind: CommandQuit, Signal: sig}
}

// SupervisorCommand is emitted by the coordinator to drive the alert device.
type SupervisorCommand uint8

const (
	// StartAlerting (re)starts the repeating alert effect.
	StartAlerting SupervisorCommand = iota + 1
	// StopAlerting cancels the repeating alert effect.
	StopAlerting
)

// String returns a readable name for logs.
func (c SupervisorCommand) String() string {
	switch c {
	case StartAlerting:
		return "start_alerting"
	case StopAlerting:
		return "stop_alerting"
	default:
		return "unknown"
	}
}
