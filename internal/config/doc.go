// Package config loads launcher settings and resolves the on-disk layout.
//
// Settings come from spotify-launcher.conf (TOML, in the user config dir or
// /etc) layered under SPOTIFY_LAUNCHER_* environment variables. Paths
// describes the install, staging, backup, state and lock locations below the
// per-user data directory.
package config
