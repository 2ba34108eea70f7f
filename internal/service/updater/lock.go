package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

// ErrAlreadyRunning is returned when another process holds the update lock.
var ErrAlreadyRunning = errors.New("another update is already running")

// Lock marks a running update of one installation.
type Lock struct {
	path string
}

// AcquireLock creates the lock file at path with our PID inside. A lock left
// behind by a process that no longer exists is taken over.
func AcquireLock(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	for range 2 {
		err := publishPID(path)
		if err == nil {
			return &Lock{path: path}, nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}

		pid := readPID(path)
		if isRunning(pid) {
			return nil, fmt.Errorf("pid %d: %w", pid, ErrAlreadyRunning)
		}

		logger.Infof(ctx, "Removing stale update lock of pid %d", pid)

		if err = os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return nil, ErrAlreadyRunning
}

// publishPID writes our PID to a temporary file and links it to path, so the
// lock never exists without its PID. It fails with fs.ErrExist when path is taken.
func publishPID(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create lock file: %w", err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	_, err = tmp.WriteString(strconv.Itoa(os.Getpid()))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("write lock file: %w", err)
	}

	if err = os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}

		return fmt.Errorf("create lock file: %w", err)
	}

	return nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func readPID(path string) int {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}

	return pid
}

// isRunning reports whether pid belongs to a live process.
func isRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		// Cannot tell, so keep the lock.
		return true
	}

	return process != nil
}
