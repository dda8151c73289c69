package version

import "fmt"

// appName prefixes the rendered versions.
const appName = "diffbell"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA of the build, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// UserAgent identifies diffbell in outgoing remote control calls.
func UserAgent() string {
	return appName + "/" + Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("%s %s (commit %s, built at %s)", appName, Version, Commit, BuildTime)
}
