package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	domain "github.com/kpcyrd/spotify-launcher/internal/domain/install"
	"github.com/kpcyrd/spotify-launcher/internal/domain/release"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
	"github.com/kpcyrd/spotify-launcher/internal/pgp"
	"github.com/kpcyrd/spotify-launcher/internal/repository/state"
	"github.com/kpcyrd/spotify-launcher/internal/service/download"
	"github.com/kpcyrd/spotify-launcher/internal/service/extract"
)

var errOptionsNotSet = errors.New("updater options are incomplete")

// PackageSource is the authenticated repository.
type PackageSource interface {
	FetchRelease(ctx context.Context, keyring string) (*release.Release, error)
	ResolvePackage(ctx context.Context, rel *release.Release) (release.Package, error)
	DownloadPackage(ctx context.Context, pkg release.Package, attempts int, reporter download.Reporter) ([]byte, error)
	PackageURL(pkg release.Package) string
}

// Options are inputs accepted by the updater entry point.
type Options struct {
	// Flags are the command line switches.
	Flags Flags
	// Config supplies the keyring, download attempts and skip_update.
	Config *config.Config
	// Paths is the installation layout.
	Paths *config.Paths
	// Source is the repository. It is not used for local archives.
	Source PackageSource
	// State persists the outcome. Defaults to a file at Paths.State.
	State state.Repository
	// Installer defaults to one derived from Paths.
	Installer *extract.Installer
	// Reporter receives download progress.
	Reporter download.Reporter
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes a run that did not fail.
type Result struct {
	// Stage is StageDone for completed runs.
	Stage Stage
	// Checked is set when the repository or a local archive was consulted.
	Checked bool
	// Installed is set when a new tree was swapped in.
	Installed bool
	// Version is the version now installed, if known.
	Version string
	// URL is the archive URL in print mode.
	URL string
}

// runner holds the state of a single update execution.
type runner struct {
	opts  *Options
	prev  *domain.State
	stage Stage
}

// Run executes the update lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "updater")

	u, err := newRunner(opts)
	if err != nil {
		return nil, err
	}

	result, err := u.run(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Update failed", "error", err)

		return nil, err
	}

	return result, nil
}

func newRunner(opts *Options) (*runner, error) {
	if opts == nil || opts.Config == nil || opts.Paths == nil {
		return nil, errOptionsNotSet
	}

	if opts.State == nil {
		opts.State = state.NewFileRepository(opts.Paths.State)
	}

	if opts.Installer == nil {
		opts.Installer = &extract.Installer{
			Target:  opts.Paths.Install,
			Staging: opts.Paths.Staging,
			Backup:  opts.Paths.Backup,
		}
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &runner{opts: opts}, nil
}

func (u *runner) run(ctx context.Context) (*Result, error) {
	flags := u.opts.Flags
	u.prev = u.loadState(ctx)

	if flags.PrintURL {
		return u.printURL(ctx)
	}

	now := u.opts.Now()
	if !ShouldUpdate(flags, u.opts.Config, u.prev, now) {
		if u.installed() {
			logger.Info(ctx, "No update needed")

			return u.done(&Result{Version: u.prev.Version}), nil
		}

		logger.Warnf(ctx, "No installation at %q, checking for updates", u.opts.Paths.Install)
	}

	lock, err := AcquireLock(ctx, u.opts.Paths.Lock)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warnf(ctx, "Failed to release update lock: %v", err)
		}
	}()

	archive, version, err := u.acquire(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Checked: true, Version: version}

	if archive != nil {
		if err = u.install(ctx, archive); err != nil {
			return nil, err
		}

		result.Installed = true
	}

	u.record(ctx, version, now)

	return u.done(result), nil
}

// acquire returns the archive to install, or nil when the latest version is
// already in place, and the version it carries.
func (u *runner) acquire(ctx context.Context) ([]byte, string, error) {
	if path := u.opts.Flags.LocalArchive; path != "" {
		u.enter(ctx, StageDownloading)

		archive, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, "", u.fail(fmt.Errorf("failed to read .deb file from %q: %w", path, err))
		}

		return archive, domain.LocalVersion, nil
	}

	pkg, err := u.resolve(ctx)
	if err != nil {
		return nil, "", err
	}

	if u.prev != nil && u.prev.Version == pkg.Version && !u.opts.Flags.ForceUpdate && u.installed() {
		logger.Info(ctx, "Latest version is already installed, not updating")

		return nil, pkg.Version, nil
	}

	u.enter(ctx, StageDownloading)

	archive, err := u.opts.Source.DownloadPackage(ctx, pkg, u.opts.Config.Spotify.DownloadAttempts, u.opts.Reporter)
	if err != nil {
		return nil, "", u.fail(err)
	}

	return archive, pkg.Version, nil
}

// resolve walks the trust chain down to the package entry.
func (u *runner) resolve(ctx context.Context) (release.Package, error) {
	if u.opts.Source == nil {
		return release.Package{}, errOptionsNotSet
	}

	u.enter(ctx, StageCheckingMetadata)

	rel, err := u.opts.Source.FetchRelease(ctx, u.opts.Config.Spotify.Keyring)
	if err != nil {
		if errors.Is(err, pgp.ErrSignatureInvalid) {
			u.stage = StageVerifyingSignature
		}

		return release.Package{}, u.fail(err)
	}

	u.enter(ctx, StageResolvingPackage)

	pkg, err := u.opts.Source.ResolvePackage(ctx, rel)
	if err != nil {
		return release.Package{}, u.fail(err)
	}

	return pkg, nil
}

func (u *runner) install(ctx context.Context, archive []byte) error {
	u.enter(ctx, StageExtracting)

	if err := u.opts.Installer.Install(ctx, bytes.NewReader(archive)); err != nil {
		if errors.Is(err, extract.ErrSwap) {
			u.stage = StageSwapping
		}

		return u.fail(err)
	}

	return nil
}

func (u *runner) printURL(ctx context.Context) (*Result, error) {
	pkg, err := u.resolve(ctx)
	if err != nil {
		return nil, err
	}

	return u.done(&Result{Version: pkg.Version, URL: u.opts.Source.PackageURL(pkg)}), nil
}

// loadState returns the previous record, or nil when there is none usable.
func (u *runner) loadState(ctx context.Context) *domain.State {
	prev, err := u.opts.State.Load(ctx)

	switch {
	case errors.Is(err, state.ErrNotFound):
		logger.Debug(ctx, "No state file found")

		return nil
	case err != nil:
		logger.Warnf(ctx, "Ignoring unreadable state file: %v", err)

		return nil
	}

	since := u.opts.Now().Sub(prev.LastUpdateCheck)
	logger.Debugf(ctx, "Last update check was %d days and %d hours ago",
		int(since.Hours())/24, int(since.Hours())%24)

	return prev
}

// record persists a decided outcome. A failure only means the next run checks again.
func (u *runner) record(ctx context.Context, version string, now time.Time) {
	logger.Debug(ctx, "Updating state file")

	next := &domain.State{Version: version, LastUpdateCheck: now}
	if err := u.opts.State.Save(ctx, next); err != nil {
		logger.Warnf(ctx, "Failed to write state file: %v", err)

		return
	}

	u.prev = next
}

// installed reports whether the canonical install directory exists.
func (u *runner) installed() bool {
	info, err := os.Stat(u.opts.Paths.Install)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}

	return err == nil && info.IsDir()
}

func (u *runner) enter(ctx context.Context, stage Stage) {
	u.stage = stage
	logger.DebugKV(ctx, "Entering stage", "stage", stage.String())
}

func (u *runner) fail(err error) error {
	failed := &StageError{Stage: u.stage, Err: err}
	u.stage = StageFailed

	return failed
}

func (u *runner) done(result *Result) *Result {
	u.stage = StageDone
	result.Stage = StageDone

	return result
}
