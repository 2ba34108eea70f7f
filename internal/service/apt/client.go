package apt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/kpcyrd/spotify-launcher/internal/checksum"
	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/domain/release"
	"github.com/kpcyrd/spotify-launcher/internal/logger"
	"github.com/kpcyrd/spotify-launcher/internal/pgp"
	"github.com/kpcyrd/spotify-launcher/internal/service/download"
)

var (
	// ErrDigestMismatch is returned when the index does not hash to the digest in Release.
	ErrDigestMismatch = errors.New("downloaded bytes don't match signed sha256sum")
	// ErrUnsupportedArchitecture is returned when the repository has no packages for this cpu.
	ErrUnsupportedArchitecture = errors.New("no packages for this architecture")
)

// Transport is what the client needs from the HTTP layer.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	download.Streamer
}

// Client walks the repository trust chain.
type Client struct {
	transport Transport
	verifier  pgp.Verifier
	repo      config.Repository
	arch      string
	backoff   backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithArchitecture overrides the Debian architecture, which defaults to the running one.
func WithArchitecture(arch string) Option {
	return func(c *Client) {
		c.arch = arch
	}
}

// WithBackoff paces download retries.
func WithBackoff(policy backoff.BackOff) Option {
	return func(c *Client) {
		c.backoff = policy
	}
}

// New creates a Client for repo.
func New(transport Transport, verifier pgp.Verifier, repo config.Repository, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		verifier:  verifier,
		repo:      repo,
		arch:      release.CurrentArchitecture(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) distURL(path string) string {
	return strings.TrimRight(c.repo.URL, "/") + "/dists/" + c.repo.Suite + "/" + path
}

// FetchRelease downloads Release and Release.gpg and parses Release once the
// signature verified with keyring.
func (c *Client) FetchRelease(ctx context.Context, keyring string) (*release.Release, error) {
	logger.Info(ctx, "Downloading release file...")

	text, err := c.transport.Fetch(ctx, c.distURL("Release"))
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}

	logger.Info(ctx, "Downloading signature...")

	sig, err := c.transport.Fetch(ctx, c.distURL("Release.gpg"))
	if err != nil {
		return nil, fmt.Errorf("fetch signature: %w", err)
	}

	logger.Info(ctx, "Verifying pgp signature...")

	if err = c.verifier.Verify(ctx, sig, text, keyring); err != nil {
		return nil, fmt.Errorf("verify release: %w", err)
	}

	logger.Info(ctx, "Signature verified successfully!")

	rel, err := release.ParseRelease(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse release: %w", err)
	}

	logger.DebugKV(ctx, "Parsed release", "origin", rel.Origin, "suite", rel.Suite, "date", rel.Date)

	return rel, nil
}

// ResolvePackage fetches the Packages index authenticated by rel and selects
// the configured package.
func (c *Client) ResolvePackage(ctx context.Context, rel *release.Release) (release.Package, error) {
	if !rel.SupportsArchitecture(c.arch) {
		return release.Package{}, fmt.Errorf("cpu=%q, supported=%q: %w",
			c.arch, rel.Architectures, ErrUnsupportedArchitecture)
	}

	indexPath := release.IndexPath(c.repo.Component, c.arch)

	signed, err := rel.Digest(indexPath)
	if err != nil {
		return release.Package{}, err
	}

	logger.Info(ctx, "Downloading package index...")

	index, err := c.transport.Fetch(ctx, c.distURL(indexPath))
	if err != nil {
		return release.Package{}, fmt.Errorf("fetch package index: %w", err)
	}

	logger.Info(ctx, "Verifying with sha256sum hash...")

	if downloaded := checksum.SHA256Hex(index); !checksum.Equal(signed, downloaded) {
		return release.Package{}, fmt.Errorf("%s (signed: %q, downloaded: %q): %w",
			indexPath, signed, downloaded, ErrDigestMismatch)
	}

	pkgs, err := release.ParsePackageIndex(string(index))
	if err != nil {
		return release.Package{}, fmt.Errorf("parse package index: %w", err)
	}

	pkg, err := release.FindPackage(pkgs, c.repo.Package)
	if err != nil {
		return release.Package{}, err
	}

	logger.DebugKV(ctx, "Found package", "name", pkg.Name, "version", pkg.Version, "filename", pkg.Filename)

	return pkg, nil
}

// FetchPackage runs the full metadata trust chain.
func (c *Client) FetchPackage(ctx context.Context, keyring string) (release.Package, error) {
	rel, err := c.FetchRelease(ctx, keyring)
	if err != nil {
		return release.Package{}, err
	}

	return c.ResolvePackage(ctx, rel)
}

// PackageURL is where the archive of pkg is downloaded from.
func (c *Client) PackageURL(pkg release.Package) string {
	return pkg.DownloadURL(c.repo.URL)
}

// DownloadPackage downloads the archive of pkg and checks it against the
// digest from the authenticated index. attempts of 0 retries forever.
func (c *Client) DownloadPackage(
	ctx context.Context,
	pkg release.Package,
	attempts int,
	reporter download.Reporter,
) ([]byte, error) {
	logger.InfoKV(ctx, "Downloading deb file",
		"file", pkg.Basename(), "package", pkg.Name, "version", pkg.Version)

	return download.Download(ctx, c.transport, c.PackageURL(pkg), pkg.SHA256, download.Options{
		MaxAttempts: attempts,
		Backoff:     c.backoff,
		Reporter:    reporter,
		Size:        pkg.Size,
	})
}
