package updater

import (
	"time"

	"github.com/kpcyrd/spotify-launcher/internal/config"
	domain "github.com/kpcyrd/spotify-launcher/internal/domain/install"
)

// UpdateCheckInterval is how long a check result stays fresh.
const UpdateCheckInterval = 24 * time.Hour

// Stage is a step of the update pipeline.
type Stage int

const (
	// StageCheckingMetadata downloads Release and its signature.
	StageCheckingMetadata Stage = iota
	// StageVerifyingSignature authenticates Release.
	StageVerifyingSignature
	// StageResolvingPackage fetches the index and selects the package.
	StageResolvingPackage
	// StageDownloading fetches the archive.
	StageDownloading
	// StageExtracting unpacks the archive into the staging directory.
	StageExtracting
	// StageSwapping promotes the staging directory.
	StageSwapping
	// StageDone is reached by every run that did not fail.
	StageDone
	// StageFailed is terminal after any error.
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageCheckingMetadata:
		return "checking metadata"
	case StageVerifyingSignature:
		return "verifying signature"
	case StageResolvingPackage:
		return "resolving package"
	case StageDownloading:
		return "downloading"
	case StageExtracting:
		return "extracting"
	case StageSwapping:
		return "swapping"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageError is a failure in a specific stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Flags are the per-invocation switches.
type Flags struct {
	// CheckUpdate checks the repository regardless of the last check.
	CheckUpdate bool
	// ForceUpdate reinstalls even when the version did not change.
	ForceUpdate bool
	// SkipUpdate never checks the repository.
	SkipUpdate bool
	// PrintURL resolves the package and reports its URL without installing.
	PrintURL bool
	// LocalArchive installs this .deb instead of consulting the repository.
	LocalArchive string
}

// ShouldUpdate decides whether this run consults the repository. It has no
// side effects; only a recorded check changes its answer.
func ShouldUpdate(flags Flags, cfg *config.Config, prev *domain.State, now time.Time) bool {
	switch {
	case flags.CheckUpdate, flags.ForceUpdate, flags.LocalArchive != "":
		return true
	case flags.SkipUpdate, cfg != nil && cfg.Spotify.SkipUpdate:
		return false
	case prev == nil:
		return true
	default:
		return !prev.CheckedWithin(now, UpdateCheckInterval)
	}
}
