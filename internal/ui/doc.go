// Package ui renders render events and turns key presses into commands.
//
// Dashboard is the bubbletea program used when stdout is a terminal: a
// threshold gauge, a summary table, a history graph and the snooze and
// commit messages, with space to snooze, b to test the bell, r to redraw and
// q to quit. Printer is the headless alternative that prints one colored line
// per render event.
package ui
