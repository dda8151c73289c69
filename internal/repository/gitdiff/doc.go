// Package gitdiff measures uncommitted changes in a git working tree.
//
// The Source runs `git rev-parse HEAD` for the identity of a sample and
// `git diff --shortstat` for its insertion and deletion counts.
package gitdiff
