package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "spotify-launcher"

var errNoDataDir = errors.New("unable to detect data directory")

// Paths is the on-disk layout of one installation.
type Paths struct {
	// Install is the canonical install directory.
	Install string
	// Staging receives a new tree before it is swapped in.
	Staging string
	// Backup holds the previous tree during a non-atomic swap.
	Backup string
	// State is the persisted update state record.
	State string
	// Lock marks a running update.
	Lock string
}

// DataDir returns $XDG_DATA_HOME/spotify-launcher or ~/.local/share/spotify-launcher.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dir) {
		return filepath.Join(dir, appDirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNoDataDir, err)
	}

	if home == "" {
		return "", errNoDataDir
	}

	return filepath.Join(home, ".local", "share", appDirName), nil
}

// NewPaths lays out an installation below dataDir. A non-empty installDir
// overrides the canonical path; staging and backup stay its siblings so a
// rename between them never crosses a filesystem.
func NewPaths(dataDir, installDir string) *Paths {
	if installDir == "" {
		installDir = filepath.Join(dataDir, "install")
	}

	installDir = filepath.Clean(installDir)

	return &Paths{
		Install: installDir,
		Staging: installDir + "-new",
		Backup:  installDir + "-old",
		State:   filepath.Join(dataDir, "state.yaml"),
		Lock:    filepath.Join(dataDir, "update.lock"),
	}
}
