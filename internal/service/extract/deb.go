package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blakesmith/ar"
)

var (
	// ErrNoDataEntry is returned when a .deb has no data.tar member.
	ErrNoDataEntry = errors.New("no data.tar.gz or data.tar.xz found in .deb")
	// ErrExtraction is returned for malformed containers, codecs and tarballs.
	ErrExtraction = errors.New("failed to extract package")
)

var arMagic = []byte("!<arch>\n")

// OpenData finds the data member of the .deb in r and returns it decoded.
// The returned reader is only valid while r is.
func OpenData(r io.Reader) (io.ReadCloser, Codec, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(len(arMagic))
	if err != nil || !bytes.Equal(magic, arMagic) {
		return nil, CodecUnknown, fmt.Errorf("%w: not an ar archive", ErrExtraction)
	}

	archive := ar.NewReader(br)

	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return nil, CodecUnknown, ErrNoDataEntry
		}

		if err != nil {
			return nil, CodecUnknown, fmt.Errorf("%w: read ar member: %w", ErrExtraction, err)
		}

		name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
		if !strings.HasPrefix(name, dataPrefix) {
			continue
		}

		codec := DetectCodec(name)
		if codec == CodecUnknown {
			return nil, codec, fmt.Errorf("%w: unsupported data member %q", ErrExtraction, name)
		}

		data, err := codec.NewReader(archive)
		if err != nil {
			return nil, codec, fmt.Errorf("%w: open %s: %w", ErrExtraction, name, err)
		}

		return data, codec, nil
	}
}
