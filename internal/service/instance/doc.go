// Package instance detects other running diffbell processes.
//
// Two watches on the same tree would ring twice and fight over the remote
// control port, so the watch command warns when it finds another one.
package instance
