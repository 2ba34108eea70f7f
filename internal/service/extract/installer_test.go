package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kpcyrd/spotify-launcher/internal/repotest"
)

func newInstaller(t *testing.T, swapper Swapper) *Installer {
	t.Helper()

	dir := t.TempDir()

	return &Installer{
		Target:  filepath.Join(dir, "install"),
		Staging: filepath.Join(dir, "install-new"),
		Backup:  filepath.Join(dir, "install-old"),
		Swapper: swapper,
	}
}

func readVersion(t *testing.T, dir string) string {
	t.Helper()

	body, err := os.ReadFile(filepath.Join(dir, "usr/share/spotify/VERSION"))
	require.NoError(t, err)

	return string(body)
}

func requireMissing(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	require.ErrorIs(t, err, os.ErrNotExist, path)
}

// failingExchange forces the fallback path.
type failingExchange struct {
	FileSwapper

	replaceErr error
	replaced   bool
}

func (f *failingExchange) Exchange(_, _ string) error {
	return ErrExchangeUnsupported
}

func (f *failingExchange) Replace(staging, target, backup string) error {
	f.replaced = true

	if f.replaceErr != nil {
		return f.replaceErr
	}

	return f.FileSwapper.Replace(staging, target, backup)
}

func install(t *testing.T, inst *Installer, version string) error {
	t.Helper()

	deb := repotest.Deb(t, "data.tar.xz", repotest.SpotifyTree(version))

	return inst.Install(context.Background(), bytes.NewReader(deb))
}

func TestInstall_Fresh(t *testing.T) {
	t.Parallel()

	inst := newInstaller(t, nil)

	require.NoError(t, install(t, inst, "1.0"))
	require.Equal(t, "1.0\n", readVersion(t, inst.Target))
	requireMissing(t, inst.Staging)
	requireMissing(t, inst.Backup)
}

func TestInstall_Upgrade(t *testing.T) {
	t.Parallel()

	inst := newInstaller(t, nil)
	require.NoError(t, install(t, inst, "1.0"))

	stale := filepath.Join(inst.Target, "usr/share/spotify/stale.so")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	require.NoError(t, install(t, inst, "2.0"))
	require.Equal(t, "2.0\n", readVersion(t, inst.Target))
	requireMissing(t, stale)
	requireMissing(t, inst.Staging)
	requireMissing(t, inst.Backup)
}

func TestInstall_FallbackReplace(t *testing.T) {
	t.Parallel()

	swapper := &failingExchange{}
	inst := newInstaller(t, swapper)

	require.NoError(t, install(t, inst, "1.0"))
	require.False(t, swapper.replaced)

	require.NoError(t, install(t, inst, "2.0"))
	require.True(t, swapper.replaced)
	require.Equal(t, "2.0\n", readVersion(t, inst.Target))
	requireMissing(t, inst.Staging)
	requireMissing(t, inst.Backup)
}

func TestInstall_FallbackFails(t *testing.T) {
	t.Parallel()

	swapper := &failingExchange{replaceErr: errors.New("disk on fire")}
	inst := newInstaller(t, swapper)

	require.NoError(t, install(t, inst, "1.0"))

	err := install(t, inst, "2.0")
	require.ErrorIs(t, err, ErrSwap)
	require.ErrorContains(t, err, "disk on fire")
	require.Equal(t, "1.0\n", readVersion(t, inst.Target))
}

func TestInstall_CorruptArchiveKeepsInstallation(t *testing.T) {
	t.Parallel()

	inst := newInstaller(t, nil)
	require.NoError(t, install(t, inst, "1.0"))

	err := inst.Install(context.Background(), bytes.NewReader([]byte("garbage")))
	require.ErrorIs(t, err, ErrExtraction)
	require.Equal(t, "1.0\n", readVersion(t, inst.Target))
	requireMissing(t, inst.Staging)
}

func TestInstall_RemovesStagingDebris(t *testing.T) {
	t.Parallel()

	inst := newInstaller(t, nil)

	debris := filepath.Join(inst.Staging, "usr/share/spotify/half-written")
	require.NoError(t, os.MkdirAll(filepath.Dir(debris), 0o755))
	require.NoError(t, os.WriteFile(debris, []byte("x"), 0o600))

	require.NoError(t, install(t, inst, "1.0"))
	requireMissing(t, filepath.Join(inst.Target, "usr/share/spotify/half-written"))
}

// TestRecover simulates a kill between the two renames of a replace.
func TestRecover(t *testing.T) {
	t.Parallel()

	inst := newInstaller(t, nil)
	require.NoError(t, install(t, inst, "1.0"))
	require.NoError(t, os.Rename(inst.Target, inst.Backup))

	require.NoError(t, Recover(context.Background(), inst.Target, inst.Backup))
	require.Equal(t, "1.0\n", readVersion(t, inst.Target))
	requireMissing(t, inst.Backup)

	require.NoError(t, os.MkdirAll(inst.Backup, 0o755))
	require.NoError(t, Recover(context.Background(), inst.Target, inst.Backup))
	require.Equal(t, "1.0\n", readVersion(t, inst.Target))
	requireMissing(t, inst.Backup)

	require.NoError(t, Recover(context.Background(), inst.Target, inst.Backup))
}
