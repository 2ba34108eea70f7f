package repotest

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/require"

	"github.com/kpcyrd/spotify-launcher/internal/checksum"
	"github.com/kpcyrd/spotify-launcher/internal/config"
	"github.com/kpcyrd/spotify-launcher/internal/domain/release"
)

const (
	// Suite is the suite served by the repository.
	Suite = "testing"
	// Component is the component served by the repository.
	Component = "non-free"
	// PackageName is the package listed in the index.
	PackageName = "spotify-client"
)

// Options shape the served repository.
type Options struct {
	// Arch is the architecture of the index, defaults to the running one.
	Arch string
	// Architectures listed in Release, defaults to Arch.
	Architectures []string
	// Version of the package, defaults to "1:1.2.3.4".
	Version string
	// Deb is the archive body, defaults to a gzip deb of SpotifyTree.
	Deb []byte
	// BadSignature signs something other than the served Release.
	BadSignature bool
	// TamperIndex serves an index that differs from the one in Release.
	TamperIndex bool
	// TamperDeb serves an archive that differs from the one in the index.
	TamperDeb bool
}

// Repository is a running signed repository.
type Repository struct {
	// URL is the base URL of the repository.
	URL string
	// Keyring is the path to the public keyring that signed Release.
	Keyring string
	// Package is the stanza listed in the index.
	Package release.Package
	// Deb is the declared archive body.
	Deb []byte

	mu   sync.Mutex
	hits map[string]int
}

// New starts a repository server that is closed when the test ends.
func New(t *testing.T, opts Options) *Repository {
	t.Helper()

	if opts.Arch == "" {
		opts.Arch = release.CurrentArchitecture()
	}

	if len(opts.Architectures) == 0 {
		opts.Architectures = []string{opts.Arch}
	}

	if opts.Version == "" {
		opts.Version = "1:1.2.3.4"
	}

	if opts.Deb == nil {
		opts.Deb = Deb(t, "data.tar.gz", SpotifyTree(opts.Version))
	}

	entity, err := openpgp.NewEntity("Spotify Public Repository Signing Key", "", "tux@spotify.com",
		&packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(t, err)

	var pub bytes.Buffer
	require.NoError(t, entity.Serialize(&pub))

	keyring := filepath.Join(t.TempDir(), "keyring.pgp")
	require.NoError(t, os.WriteFile(keyring, pub.Bytes(), 0o600))

	pkg := release.Package{
		Name:         PackageName,
		Version:      opts.Version,
		Filename:     fmt.Sprintf("pool/non-free/s/spotify-client/spotify-client_%s_%s.deb", opts.Version, opts.Arch),
		SHA256:       checksum.SHA256Hex(opts.Deb),
		Architecture: opts.Arch,
		Size:         uint64(len(opts.Deb)),
	}

	index := packageIndex(pkg)
	indexPath := release.IndexPath(Component, opts.Arch)
	releaseText := releaseFile(opts.Architectures, indexPath, index)

	signed := releaseText
	if opts.BadSignature {
		signed += "tampered\n"
	}

	var sig bytes.Buffer
	require.NoError(t, openpgp.DetachSign(&sig, entity, strings.NewReader(signed), nil))

	served := opts.Deb
	if opts.TamperDeb {
		served = bytes.Clone(opts.Deb)
		served[len(served)/2] ^= 0xff
	}

	if opts.TamperIndex {
		index += "\n"
	}

	repo := &Repository{
		Keyring: keyring,
		Package: pkg,
		Deb:     opts.Deb,
		hits:    make(map[string]int),
	}

	dists := "/dists/" + Suite + "/"
	files := map[string][]byte{
		dists + "Release":     []byte(releaseText),
		dists + "Release.gpg": sig.Bytes(),
		dists + indexPath:     []byte(index),
		"/" + pkg.Filename:    served,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo.mu.Lock()
		repo.hits[r.URL.Path]++
		repo.mu.Unlock()

		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		http.ServeContent(w, r, filepath.Base(r.URL.Path), time.Time{}, bytes.NewReader(body))
	}))
	t.Cleanup(srv.Close)

	repo.URL = srv.URL

	return repo
}

// Config points a repository configuration at the server.
func (r *Repository) Config() config.Repository {
	return config.Repository{
		URL:       r.URL,
		Suite:     Suite,
		Component: Component,
		Package:   PackageName,
	}
}

// Hits is how often path was requested.
func (r *Repository) Hits(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hits[path]
}

// PackageHits is how often the archive was requested.
func (r *Repository) PackageHits() int {
	return r.Hits("/" + r.Package.Filename)
}

func packageIndex(pkg release.Package) string {
	return "Package: spotify-client-gnome-support\n" +
		"Version: 0.1\n" +
		"Filename: pool/non-free/s/spotify-client/spotify-client-gnome-support_0.1_all.deb\n" +
		"SHA256: 0000000000000000000000000000000000000000000000000000000000000000\n" +
		"\n" +
		"Package: " + pkg.Name + "\n" +
		"Architecture: " + pkg.Architecture + "\n" +
		"Version: " + pkg.Version + "\n" +
		"Priority: extra\n" +
		"Filename: " + pkg.Filename + "\n" +
		fmt.Sprintf("Size: %d\n", pkg.Size) +
		"SHA256: " + pkg.SHA256 + "\n" +
		"Description: Spotify streaming music client\n" +
		" Continuation line.\n"
}

func releaseFile(architectures []string, indexPath, index string) string {
	return "Origin: Spotify LTD\n" +
		"Label: Spotify Public Repository\n" +
		"Suite: " + Suite + "\n" +
		"Codename: " + Suite + "\n" +
		"Date: Wed, 27 Apr 2022 12:30:15 UTC\n" +
		"Architectures: " + strings.Join(architectures, " ") + "\n" +
		"Components: " + Component + "\n" +
		"SHA256:\n" +
		fmt.Sprintf(" %s %d %s\n", checksum.SHA256Hex([]byte(index)), len(index), indexPath)
}
