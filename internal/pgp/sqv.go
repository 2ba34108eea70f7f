package pgp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

// Sqv verifies by running `sqv --keyring <keyring> -- <sig> <artifact>`.
type Sqv struct {
	// Binary is the sqv executable, looked up in PATH when it has no slash.
	Binary string
}

// Verify writes both inputs to a private temp dir and runs sqv on them.
// Exit status zero is the only success.
func (s *Sqv) Verify(ctx context.Context, signature, artifact []byte, keyring string) error {
	dir, err := os.MkdirTemp("", "spotify-launcher-sqv-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warnf(ctx, "Failed to remove %s: %v", dir, err)
		}
	}()

	sigPath := filepath.Join(dir, "Release.gpg")
	artifactPath := filepath.Join(dir, "Release")

	if err = os.WriteFile(sigPath, signature, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	if err = os.WriteFile(artifactPath, artifact, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	var stderr bytes.Buffer

	//nolint:gosec // Arguments are file paths we created.
	cmd := exec.CommandContext(ctx, s.Binary, "--keyring", keyring, "--", sigPath, artifactPath)
	cmd.Stderr = &stderr

	logger.DebugKV(ctx, "Running signature verifier", "command", cmd.String())

	if err = cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: sqv: %w: %s", ErrSignatureInvalid, err, msg)
		}

		return fmt.Errorf("%w: sqv: %w", ErrSignatureInvalid, err)
	}

	return nil
}
