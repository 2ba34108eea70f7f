// Package version exposes build metadata for the launcher.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Short and Full render the version for CLI output, UserAgent
// identifies the launcher to the package repository.
package version
