// Package meta holds build-time metadata for prune-plan.
package meta

// Version is the release version of prune-plan, overridden at build time via
// -ldflags "-X github.com/pruneplan/pruneplan/internal/meta.Version=v1.2.3".
var Version = "v0.0.0-unknown"
