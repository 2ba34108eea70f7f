package extract

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kpcyrd/spotify-launcher/internal/repotest"
)

func TestDetectCodec(t *testing.T) {
	t.Parallel()

	cases := map[string]Codec{
		"data.tar":      CodecNone,
		"data.tar.gz":   CodecGzip,
		"data.tar.gz/":  CodecGzip,
		"data.tar.xz":   CodecXz,
		"data.tar.lzma": CodecLzma,
		"data.tar.zst":  CodecZstd,
		"data.tar.bz2":  CodecUnknown,
		"control.tar":   CodecUnknown,
		"debian-binary": CodecUnknown,
	}

	for name, want := range cases {
		require.Equal(t, want, DetectCodec(name), name)
	}
}

func TestOpenData(t *testing.T) {
	t.Parallel()

	entries := repotest.SpotifyTree("1.2.3")

	for member, codec := range map[string]Codec{
		"data.tar":      CodecNone,
		"data.tar.gz":   CodecGzip,
		"data.tar.xz":   CodecXz,
		"data.tar.lzma": CodecLzma,
		"data.tar.zst":  CodecZstd,
	} {
		deb := repotest.Deb(t, member, entries)

		data, got, err := OpenData(bytes.NewReader(deb))
		require.NoError(t, err, member)
		require.Equal(t, codec, got)

		body, err := io.ReadAll(data)
		require.NoError(t, err, member)
		require.NoError(t, data.Close())
		require.Equal(t, repotest.Tarball(t, entries), body, member)
	}
}

func TestOpenData_NoDataEntry(t *testing.T) {
	t.Parallel()

	deb := repotest.Ar(t,
		repotest.Member{Name: "debian-binary", Body: []byte("2.0\n")},
		repotest.Member{Name: "control.tar.gz", Body: []byte("control")},
	)

	_, _, err := OpenData(bytes.NewReader(deb))
	require.ErrorIs(t, err, ErrNoDataEntry)
}

func TestOpenData_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := OpenData(bytes.NewReader([]byte("PK\x03\x04 definitely not a deb")))
	require.ErrorIs(t, err, ErrExtraction)

	_, _, err = OpenData(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrExtraction)

	unsupported := repotest.Ar(t, repotest.Member{Name: "data.tar.bz2", Body: []byte("BZh9")})

	_, _, err = OpenData(bytes.NewReader(unsupported))
	require.ErrorIs(t, err, ErrExtraction)

	badCodec := repotest.Ar(t, repotest.Member{Name: "data.tar.xz", Body: []byte("not xz at all")})

	_, _, err = OpenData(bytes.NewReader(badCodec))
	require.ErrorIs(t, err, ErrExtraction)
}

func TestOpenData_SkipsOtherMembers(t *testing.T) {
	t.Parallel()

	tarball := repotest.Tarball(t, []repotest.Entry{{Name: "./a", Body: "a", Mode: 0o644, Typeflag: tar.TypeReg}})
	deb := repotest.Ar(t,
		repotest.Member{Name: "debian-binary", Body: []byte("2.0\n")},
		repotest.Member{Name: "_gpgbuilder", Body: []byte("odd sized member")},
		repotest.Member{Name: "data.tar", Body: tarball},
	)

	data, codec, err := OpenData(bytes.NewReader(deb))
	require.NoError(t, err)
	require.Equal(t, CodecNone, codec)

	body, err := io.ReadAll(data)
	require.NoError(t, err)
	require.Equal(t, tarball, body)
}
