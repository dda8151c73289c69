// Package notify broadcasts alert transitions to NATS.
//
// The Notifier follows the render fan-out and publishes a message whenever
// the change count crosses the threshold, a snooze begins or a commit is
// observed. Messages are protojson-encoded google.protobuf.Struct values that
// carry the status fields plus the transition kind and a per-run session id.
package notify
