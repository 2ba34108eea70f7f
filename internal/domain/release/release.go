package release

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"pault.ag/go/debian/control"
)

var (
	// ErrMissingDigest is returned when Release lists no SHA256 for a path.
	ErrMissingDigest = errors.New("missing sha256 digest in release file")
	// ErrMalformedLine is returned for lines that do not fit the expected format.
	ErrMalformedLine = errors.New("malformed line")
)

// Release is the parsed content of dists/<suite>/Release.
type Release struct {
	// Origin, Label, Suite, Codename, Version and Date are informational.
	Origin   string
	Label    string
	Suite    string
	Codename string
	Version  string
	Date     string
	// Architectures lists the Debian architectures the repository serves.
	Architectures []string
	// SHA256 maps a path relative to the Release file to its hex digest.
	SHA256 map[string]string
}

// releaseFile is the control paragraph of a Release file.
type releaseFile struct {
	Origin        string
	Label         string
	Suite         string
	Codename      string
	Version       string
	Date          string
	Architectures string
	SHA256        []fileDigest `control:"SHA256" multiline:"true" delim:"\n" strip:"\n\r\t "`
}

// ParseRelease parses the Release text format. Unknown fields and sections
// are ignored; absent fields only matter once they are looked up.
func ParseRelease(text string) (*Release, error) {
	text, err := normalize("release", text)
	if err != nil {
		return nil, err
	}

	var file releaseFile
	if err = control.Unmarshal(&file, strings.NewReader(text)); err != nil {
		return nil, fmt.Errorf("decode release: %w: %w", ErrMalformedLine, err)
	}

	rel := &Release{
		Origin:        file.Origin,
		Label:         file.Label,
		Suite:         file.Suite,
		Codename:      file.Codename,
		Version:       file.Version,
		Date:          file.Date,
		Architectures: strings.Fields(file.Architectures),
		SHA256:        make(map[string]string, len(file.SHA256)),
	}

	for _, entry := range file.SHA256 {
		if entry.Filename == "" {
			continue
		}

		rel.SHA256[entry.Filename] = strings.ToLower(entry.Hash)
	}

	return rel, nil
}

// SupportsArchitecture reports whether arch is listed in Architectures.
func (r *Release) SupportsArchitecture(arch string) bool {
	return slices.Contains(r.Architectures, arch)
}

// Digest returns the declared SHA-256 digest of path.
func (r *Release) Digest(path string) (string, error) {
	digest, ok := r.SHA256[path]
	if !ok || digest == "" {
		return "", fmt.Errorf("%s: %w", path, ErrMissingDigest)
	}

	return digest, nil
}

// IndexPath is the Packages index location for component and arch.
func IndexPath(component, arch string) string {
	return component + "/binary-" + arch + "/Packages"
}
