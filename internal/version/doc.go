// Package version holds the build metadata of diffbell.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ..." and keep
// their defaults in local builds.
package version
