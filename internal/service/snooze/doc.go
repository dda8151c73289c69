// Package snooze provides a one-shot, cancellable deferred action.
//
// Every Schedule replaces the pending action and hands out a new generation
// number. Callbacks receive the generation they were scheduled with so that an
// owner can ignore a callback that raced with a later Schedule or Cancel.
package snooze
