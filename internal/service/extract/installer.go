package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

// Installer unpacks a .deb next to Target and promotes it.
type Installer struct {
	// Target is the live installation.
	Target string
	// Staging is where the new tree is unpacked, a sibling of Target.
	Staging string
	// Backup holds the old tree during a non-atomic replace.
	Backup string
	// Swapper defaults to FileSwapper.
	Swapper Swapper
}

// Install replaces Target with the data tree of the .deb in archive.
// Target is untouched unless the new tree was unpacked completely.
func (i *Installer) Install(ctx context.Context, archive io.Reader) error {
	if err := Recover(ctx, i.Target, i.Backup); err != nil {
		return err
	}

	if err := os.RemoveAll(i.Staging); err != nil {
		return fmt.Errorf("remove staging directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(i.Staging), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	data, codec, err := OpenData(archive)
	if err != nil {
		return err
	}
	defer data.Close()

	logger.Debugf(ctx, "Found data.tar (%s) in .deb", codec)
	logger.Infof(ctx, "Extracting to %q...", i.Staging)

	if err = Unpack(data, i.Staging); err != nil {
		if rerr := os.RemoveAll(i.Staging); rerr != nil {
			logger.Warnf(ctx, "Failed to delete partial extraction: %v", rerr)
		}

		return err
	}

	return i.promote(ctx)
}

func (i *Installer) swapper() Swapper {
	if i.Swapper == nil {
		return FileSwapper{}
	}

	return i.Swapper
}

func (i *Installer) promote(ctx context.Context) error {
	if _, err := os.Lstat(i.Target); errors.Is(err, fs.ErrNotExist) {
		logger.Debugf(ctx, "Moving %q into place", i.Staging)

		if err = os.Rename(i.Staging, i.Target); err != nil {
			return fmt.Errorf("%w: %w", ErrSwap, err)
		}

		return nil
	}

	logger.Infof(ctx, "Atomically swapping new directory at %q with %q...", i.Staging, i.Target)

	swapper := i.swapper()

	err := swapper.Exchange(i.Staging, i.Target)
	if err == nil {
		logger.Debug(ctx, "Removing old directory...")

		if err = os.RemoveAll(i.Staging); err != nil {
			logger.Warnf(ctx, "Failed to delete old directory: %v", err)
		}

		return nil
	}

	logger.Warnf(ctx, "Failed to swap %q with %q: %v", i.Staging, i.Target, err)
	logger.Debug(ctx, "Falling back to non-atomic swap...")

	if err = swapper.Replace(i.Staging, i.Target, i.Backup); err != nil {
		return fmt.Errorf("%w: %w", ErrSwap, err)
	}

	if err = os.RemoveAll(i.Backup); err != nil {
		logger.Warnf(ctx, "Failed to delete old directory: %v", err)
	}

	return nil
}
