package updater

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "update.lock")

	lock, err := AcquireLock(context.Background(), path)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(body))

	_, err = AcquireLock(context.Background(), path)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	lock, err = AcquireLock(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireLock_Stale(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"", "garbage", "2147483646"} {
		path := filepath.Join(t.TempDir(), "update.lock")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		lock, err := AcquireLock(context.Background(), path)
		require.NoError(t, err, content)
		require.NoError(t, lock.Release())
	}
}

// TestAcquireLock_Contended never lets a contender see a lock without its PID.
func TestAcquireLock_Contended(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "update.lock")

	const contenders = 16

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		held  []*Lock
		start = make(chan struct{})
	)

	for range contenders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			<-start

			lock, err := AcquireLock(context.Background(), path)
			if err != nil {
				return
			}

			mu.Lock()
			held = append(held, lock)
			mu.Unlock()
		}()
	}

	close(start)
	wg.Wait()

	require.Len(t, held, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "update.lock", entries[0].Name())

	require.NoError(t, held[0].Release())
}
