package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

var (
	// ErrSwap is returned when the new tree could not be put in place.
	ErrSwap = errors.New("failed to move new installation in place")
	// ErrExchangeUnsupported is returned where directories cannot be exchanged atomically.
	ErrExchangeUnsupported = errors.New("atomic directory exchange is not supported")
)

// Swapper moves directories around.
type Swapper interface {
	// Exchange atomically swaps the paths a and b.
	Exchange(a, b string) error
	// Replace moves target to backup and staging to target.
	Replace(staging, target, backup string) error
}

// FileSwapper is the Swapper of the local filesystem.
type FileSwapper struct{}

// Exchange swaps a and b in one step.
func (FileSwapper) Exchange(a, b string) error {
	return exchange(a, b)
}

// Replace renames target to backup and staging to target. If the second
// rename fails the first one is undone.
func (FileSwapper) Replace(staging, target, backup string) error {
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("remove stale backup: %w", err)
	}

	if err := os.Rename(target, backup); err != nil {
		return fmt.Errorf("move old directory aside: %w", err)
	}

	if err := os.Rename(staging, target); err != nil {
		if rerr := os.Rename(backup, target); rerr != nil {
			return fmt.Errorf("move new directory in place: %w (restore failed: %w)", err, rerr)
		}

		return fmt.Errorf("move new directory in place: %w", err)
	}

	return nil
}

// Recover completes or undoes a Replace that was interrupted. A backup next
// to a missing target is moved back; a backup next to a present target is
// leftover and removed.
func Recover(ctx context.Context, target, backup string) error {
	if _, err := os.Lstat(backup); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	_, err := os.Lstat(target)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warnf(ctx, "Restoring %q from interrupted update", target)

		if err = os.Rename(backup, target); err != nil {
			return fmt.Errorf("%w: restore %s: %w", ErrSwap, backup, err)
		}
	case err != nil:
		return fmt.Errorf("%w: %w", ErrSwap, err)
	default:
		logger.Debugf(ctx, "Removing leftover backup %q", backup)

		if err = os.RemoveAll(backup); err != nil {
			logger.Warnf(ctx, "Failed to delete leftover backup %q: %v", backup, err)
		}
	}

	return nil
}
