package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kpcyrd/spotify-launcher/cmd/spotify-launcher/cmd"
	domain "github.com/kpcyrd/spotify-launcher/internal/domain/install"
	"github.com/kpcyrd/spotify-launcher/internal/pgp"
	"github.com/kpcyrd/spotify-launcher/internal/repository/state"
	"github.com/kpcyrd/spotify-launcher/internal/repotest"
	"github.com/kpcyrd/spotify-launcher/internal/service/apt"
	"github.com/kpcyrd/spotify-launcher/internal/service/download"
	"github.com/kpcyrd/spotify-launcher/internal/service/updater"
)

// env is one isolated launcher installation.
type env struct {
	dataDir    string
	configPath string
}

func newEnv(t *testing.T, repo *repotest.Repository) *env {
	t.Helper()

	// Keep dialogs away from the test run.
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "spotify-launcher.conf")

	settings := fmt.Sprintf(`[spotify]
verifier = "native"
keyring = %q
download_attempts = 2

[repository]
url = %q
suite = %q
component = %q
package = %q
`, repo.Keyring, repo.URL, repotest.Suite, repotest.Component, repotest.PackageName)

	require.NoError(t, os.WriteFile(configPath, []byte(settings), 0o600))

	return &env{dataDir: filepath.Join(dir, "data"), configPath: configPath}
}

func (e *env) run(args ...string) (string, error) {
	root := cmd.NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir, "--no-exec"}, args...))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func (e *env) installDir() string {
	return filepath.Join(e.dataDir, "install")
}

func (e *env) installedBuild(t *testing.T) string {
	t.Helper()

	body, err := os.ReadFile(filepath.Join(e.installDir(), "usr", "share", "spotify", "VERSION"))
	require.NoError(t, err)

	return string(body)
}

func (e *env) state(t *testing.T) *domain.State {
	t.Helper()

	st, err := state.NewFileRepository(filepath.Join(e.dataDir, "state.yaml")).Load(context.Background())
	require.NoError(t, err)

	return st
}

func (e *env) requireNoState(t *testing.T) {
	t.Helper()

	_, err := state.NewFileRepository(filepath.Join(e.dataDir, "state.yaml")).Load(context.Background())
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestLauncher_InstallsAndRecordsState(t *testing.T) {
	repo := repotest.New(t, repotest.Options{Version: "1:1.2.8.923.g4f94bf0d"})
	e := newEnv(t, repo)

	_, err := e.run()
	require.NoError(t, err)
	require.Equal(t, "1:1.2.8.923.g4f94bf0d\n", e.installedBuild(t))
	require.Equal(t, "1:1.2.8.923.g4f94bf0d", e.state(t).Version)
	require.Equal(t, 1, repo.PackageHits())

	target, err := os.Readlink(filepath.Join(e.installDir(), "usr", "bin", "spotify"))
	require.NoError(t, err)
	require.Equal(t, "../share/spotify/spotify", target)

	// A second start within the check interval stays offline.
	_, err = e.run()
	require.NoError(t, err)
	require.Equal(t, 1, repo.Hits("/dists/testing/Release"))
	require.Equal(t, 1, repo.PackageHits())
}

func TestLauncher_ChecksumMismatchKeepsInstallation(t *testing.T) {
	repo := repotest.New(t, repotest.Options{TamperDeb: true})
	e := newEnv(t, repo)

	local := filepath.Join(t.TempDir(), "spotify.deb")
	require.NoError(t, os.WriteFile(local, repotest.Deb(t, "data.tar.xz", repotest.SpotifyTree("local")), 0o600))

	_, err := e.run("--deb", local)
	require.NoError(t, err)
	require.Equal(t, "local\n", e.installedBuild(t))
	require.Equal(t, domain.LocalVersion, e.state(t).Version)

	before := e.state(t)

	_, err = e.run("--check-update")
	require.ErrorIs(t, err, download.ErrChecksumMismatch)

	var stageErr *updater.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, updater.StageDownloading, stageErr.Stage)

	require.Equal(t, "local\n", e.installedBuild(t))
	require.Equal(t, before.Version, e.state(t).Version)
	require.True(t, before.LastUpdateCheck.Equal(e.state(t).LastUpdateCheck))
	require.NoDirExists(t, filepath.Join(e.dataDir, "install-new"))
}

func TestLauncher_UnsupportedArchitecture(t *testing.T) {
	repo := repotest.New(t, repotest.Options{Architectures: []string{"pdp11"}})
	e := newEnv(t, repo)

	_, err := e.run()
	require.ErrorIs(t, err, apt.ErrUnsupportedArchitecture)
	require.Zero(t, repo.PackageHits())
	require.NoDirExists(t, e.installDir())
	e.requireNoState(t)
}

func TestLauncher_BadSignature(t *testing.T) {
	repo := repotest.New(t, repotest.Options{BadSignature: true})
	e := newEnv(t, repo)

	_, err := e.run()
	require.ErrorIs(t, err, pgp.ErrSignatureInvalid)

	var stageErr *updater.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, updater.StageVerifyingSignature, stageErr.Stage)

	require.Zero(t, repo.PackageHits())
	require.NoDirExists(t, e.installDir())
}

func TestLauncher_PrintURL(t *testing.T) {
	repo := repotest.New(t, repotest.Options{})
	e := newEnv(t, repo)

	out, err := e.run("--print-deb-url")
	require.NoError(t, err)
	require.Equal(t, repo.URL+"/"+repo.Package.Filename+"\n", out)
	require.Zero(t, repo.PackageHits())
	require.NoDirExists(t, e.installDir())
}

func TestLauncher_ForceUpdateReinstalls(t *testing.T) {
	repo := repotest.New(t, repotest.Options{})
	e := newEnv(t, repo)

	_, err := e.run()
	require.NoError(t, err)

	_, err = e.run("--force-update")
	require.NoError(t, err)
	require.Equal(t, 2, repo.PackageHits())
	require.Equal(t, repo.Package.Version+"\n", e.installedBuild(t))
}
