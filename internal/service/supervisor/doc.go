// Package supervisor drives the alert device.
//
// The Supervisor turns StartAlerting and StopAlerting commands into a single
// repeating alert action. Every activation owns its own context; starting while
// active cancels the previous activation before the new one begins, so at most
// one ring loop is ever live. An effect that is already playing is allowed to
// finish, only its recurrence is cancelled.
package supervisor
