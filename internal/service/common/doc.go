// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client for the remote control of a running
// watch, with per-call timeouts, and detects the current user and host so that
// remote actions show up in the watcher's logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
