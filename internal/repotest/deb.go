package repotest

import (
	"archive/tar"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Entry is one member of the data tarball.
type Entry struct {
	Name     string
	Body     string
	Mode     int64
	Typeflag byte
	Linkname string
}

// SpotifyTree is a minimal client installation.
func SpotifyTree(build string) []Entry {
	return []Entry{
		{Name: "./", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "./usr/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "./usr/bin/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "./usr/share/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "./usr/share/spotify/", Typeflag: tar.TypeDir, Mode: 0o755},
		{Name: "./usr/share/spotify/spotify", Body: "#!/bin/sh\necho " + build + "\n", Mode: 0o755},
		{Name: "./usr/share/spotify/VERSION", Body: build + "\n", Mode: 0o644},
		{Name: "./usr/bin/spotify", Typeflag: tar.TypeSymlink, Linkname: "../share/spotify/spotify"},
	}
}

// Tarball writes entries as an uncompressed tar stream.
func Tarball(t *testing.T, entries []Entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)

	for _, entry := range entries {
		hdr := &tar.Header{
			Name:     entry.Name,
			Mode:     entry.Mode,
			Typeflag: entry.Typeflag,
			Linkname: entry.Linkname,
			ModTime:  time.Unix(1650000000, 0),
		}

		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}

		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(entry.Body))
		}

		require.NoError(t, tw.WriteHeader(hdr))

		if hdr.Size > 0 {
			_, err := io.WriteString(tw, entry.Body)
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())

	return buf.Bytes()
}

// Compress encodes data for the data member called member.
func Compress(t *testing.T, member string, data []byte) []byte {
	t.Helper()

	var (
		buf bytes.Buffer
		w   io.WriteCloser
		err error
	)

	switch {
	case strings.HasSuffix(member, ".gz"):
		w = gzip.NewWriter(&buf)
	case strings.HasSuffix(member, ".xz"):
		w, err = xz.NewWriter(&buf)
	case strings.HasSuffix(member, ".lzma"):
		w, err = lzma.NewWriter(&buf)
	case strings.HasSuffix(member, ".zst"):
		w, err = zstd.NewWriter(&buf)
	default:
		return data
	}

	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// Member is a raw ar member.
type Member struct {
	Name string
	Body []byte
}

// Ar writes members into an ar container.
func Ar(t *testing.T, members ...Member) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	for _, member := range members {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    member.Name,
			ModTime: time.Unix(1650000000, 0),
			Mode:    0o644,
			Size:    int64(len(member.Body)),
		}))

		_, err := w.Write(member.Body)
		require.NoError(t, err)
	}

	return buf.Bytes()
}

// Deb builds a .deb whose data member is called member (for example
// "data.tar.xz") and holds entries.
func Deb(t *testing.T, member string, entries []Entry) []byte {
	t.Helper()

	control := Compress(t, "control.tar.gz", Tarball(t, []Entry{
		{Name: "./control", Body: "Package: spotify-client\n", Mode: 0o644},
	}))

	return Ar(t,
		Member{Name: "debian-binary", Body: []byte("2.0\n")},
		Member{Name: "control.tar.gz", Body: control},
		Member{Name: member, Body: Compress(t, member, Tarball(t, entries))},
	)
}
