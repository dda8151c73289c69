// Package poller samples the metric source on a fixed interval and feeds the
// coordinator with MetricUpdate commands.
package poller
