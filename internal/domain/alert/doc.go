// Package alert contains core domain types for change alerting.
//
// It defines MetricSample (one observation of the uncommitted change count),
// State (whether the alert is ringing or snoozed), the Command values fed to
// the coordinator, the SupervisorCommand values it emits and the RenderEvent
// snapshots handed to displays.
package alert
