package pgp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

const (
	// ModeAuto prefers sqv when it is installed.
	ModeAuto = "auto"
	// ModeSqv always runs sqv.
	ModeSqv = "sqv"
	// ModeNative always verifies in process.
	ModeNative = "native"

	sqvBinary = "sqv"
)

var (
	// ErrSignatureInvalid is returned when a signature does not verify for
	// any reason, including a verifier that could not run.
	ErrSignatureInvalid = errors.New("signature verification failed")
	// ErrUnknownMode is returned by New for an unknown verifier name.
	ErrUnknownMode = errors.New("unknown verifier mode")
)

// Verifier checks that signature is a valid detached signature over artifact
// made by a key in the keyring file.
type Verifier interface {
	Verify(ctx context.Context, signature, artifact []byte, keyring string) error
}

// New returns the verifier selected by mode.
func New(ctx context.Context, mode string) (Verifier, error) {
	switch mode {
	case ModeSqv:
		return &Sqv{Binary: sqvBinary}, nil
	case ModeNative:
		return &Native{}, nil
	case ModeAuto, "":
		path, err := exec.LookPath(sqvBinary)
		if err != nil {
			logger.Debug(ctx, "sqv not found, verifying signatures in process")

			return &Native{}, nil
		}

		logger.Debugf(ctx, "Using %s to verify signatures", path)

		return &Sqv{Binary: path}, nil
	default:
		return nil, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
}
