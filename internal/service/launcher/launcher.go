package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

// BinaryPath is the client executable relative to the install directory.
const BinaryPath = "usr/bin/spotify"

var errEmptyCommand = errors.New("empty command")

// Binary is the client executable inside installDir.
func Binary(installDir string) string {
	return filepath.Join(installDir, BinaryPath)
}

// Command assembles the argv: the binary, the configured extra arguments
// and, if set, the spotify: URI to open.
func Command(installDir string, extraArgs []string, uri string) []string {
	argv := make([]string, 0, len(extraArgs)+2)
	argv = append(argv, Binary(installDir))
	argv = append(argv, extraArgs...)

	if uri != "" {
		argv = append(argv, "--uri="+uri)
	}

	return argv
}

// Environ is the current environment with extra KEY=value pairs appended.
// Malformed pairs are skipped.
func Environ(ctx context.Context, extra []string) []string {
	env := os.Environ()

	for _, kv := range extra {
		if key, _, ok := strings.Cut(kv, "="); !ok || key == "" {
			logger.Warnf(ctx, "Ignoring malformed environment variable %q", kv)

			continue
		}

		env = append(env, kv)
	}

	return env
}

// Exec replaces the running process with argv. It only returns on failure.
func Exec(ctx context.Context, argv, env []string) error {
	if len(argv) == 0 {
		return errEmptyCommand
	}

	logger.DebugKV(ctx, "Assembled command", "argv", argv)

	if err := execve(ctx, argv, env); err != nil {
		return fmt.Errorf("failed to exec %q: %w", argv[0], err)
	}

	return nil
}
