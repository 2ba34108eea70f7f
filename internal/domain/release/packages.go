package release

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"pault.ag/go/debian/control"
)

var (
	// ErrMissingField is returned for a stanza lacking a required field.
	ErrMissingField = errors.New("missing field")
	// ErrPackageNotFound is returned when the index has no stanza for a name.
	ErrPackageNotFound = errors.New("package not found in index")
)

// Package is one stanza of a Packages index.
type Package struct {
	Name     string
	Version  string
	Filename string
	// SHA256 is the declared digest of the archive at Filename.
	SHA256       string
	Architecture string
	// Size is the declared archive size, 0 when the stanza omits it.
	Size uint64
}

// DownloadURL joins the repository base URL and Filename.
func (p *Package) DownloadURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p.Filename, "/")
}

// Basename is the archive file name without the pool directories.
func (p *Package) Basename() string {
	return path.Base(p.Filename)
}

// stanza is one control paragraph of a Packages index.
type stanza struct {
	Package      string
	Version      string
	Filename     string
	SHA256       string
	Architecture string
	Size         string
}

func (s *stanza) toPackage(number int) (Package, error) {
	pkg := Package{
		Name:         s.Package,
		Version:      s.Version,
		Filename:     s.Filename,
		SHA256:       strings.ToLower(s.SHA256),
		Architecture: s.Architecture,
	}

	for _, required := range []struct{ key, value string }{
		{"Package", pkg.Name},
		{"Version", pkg.Version},
		{"Filename", pkg.Filename},
		{"SHA256", pkg.SHA256},
	} {
		if required.value == "" {
			return Package{}, fmt.Errorf("stanza %d: %w: %s", number, ErrMissingField, required.key)
		}
	}

	if s.Size != "" {
		n, err := strconv.ParseUint(s.Size, 10, 64)
		if err != nil {
			return Package{}, fmt.Errorf("stanza %d: size %q: %w", number, s.Size, ErrMalformedLine)
		}

		pkg.Size = n
	}

	return pkg, nil
}

// ParsePackageIndex parses a Packages index. Stanzas are separated by blank
// lines. A stanza without Package, Version, Filename or SHA256 fails the
// whole parse.
func ParsePackageIndex(text string) ([]Package, error) {
	text, err := normalize("index", text)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var stanzas []stanza
	if err = control.Unmarshal(&stanzas, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("decode index: %w: %w", ErrMalformedLine, err)
	}

	out := make([]Package, 0, len(stanzas))

	for i := range stanzas {
		pkg, err := stanzas[i].toPackage(i + 1)
		if err != nil {
			return nil, err
		}

		out = append(out, pkg)
	}

	return out, nil
}

// FindPackage returns the first package called name.
func FindPackage(pkgs []Package, name string) (Package, error) {
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, nil
		}
	}

	return Package{}, fmt.Errorf("%s: %w", name, ErrPackageNotFound)
}
