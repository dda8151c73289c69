// Package coordinator implements the alert coordinator.
//
// The Coordinator is a single goroutine that owns the alert State. Every
// external event (metric updates, snooze requests, test alerts, redraws and
// quit) arrives through a bounded inbox and is handled in arrival order.
// Decisions leave the coordinator as SupervisorCommand values and RenderEvent
// snapshots on two bounded channels that the coordinator owns and closes when
// it stops. A full channel on either side is fatal and reported as ErrStalled.
package coordinator
