// Package watch wires the coordinator, its producers and its sinks into one run.
//
// Run loads the settings, starts every task under an errgroup and unwinds them
// in order when the coordinator quits: the supervisor stops the alert, the
// render stream closes, the sinks drain and the listeners shut down.
package watch
