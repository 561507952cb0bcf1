// Package version holds the release version stamped into reports and
// the CLI banner.
package version

// Version is overridden at release time via -ldflags.
var Version = "1.0.0"
