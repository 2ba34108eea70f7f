package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const releaseText = `Origin: Spotify LTD
Label: Spotify Public Repository
Suite: testing
Codename: testing
Version: 0.4
Date: Wed, 27 Apr 2022 12:30:15 UTC
Architectures: amd64 i386
Components: non-free
Description: Spotify's repository for beta releases of the desktop client
MD5Sum:
 edf4635027ed7a5df78633d70657834e 1220 non-free/binary-amd64/Packages
 77247f419f4652944f6f7e674356eab5 665 non-free/binary-amd64/Packages.gz
SHA1:
 71f7a00f6f8f16677396a5366df3b1f288d7e8d5 1220 non-free/binary-amd64/Packages
SHA256:
 7eb86d0a8bbbfb356b2c641f039214ad30f7f5d7faabdf546d5f83d4f0f574cd 1220 non-free/binary-amd64/Packages
 8c55f74c379873d3b4bb63b7e05eff20705e9f08348b93b9e20d3baa8d27d383 665 non-free/binary-amd64/Packages.gz
 497184ddb1dc525de81a1bd98ac97175b176d15ead076680d3e8d27b0b5329c8 1067 non-free/binary-i386/Packages
 e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855 0 non-free/source/Sources
`

var wantDigests = map[string]string{
	"non-free/binary-amd64/Packages":    "7eb86d0a8bbbfb356b2c641f039214ad30f7f5d7faabdf546d5f83d4f0f574cd",
	"non-free/binary-amd64/Packages.gz": "8c55f74c379873d3b4bb63b7e05eff20705e9f08348b93b9e20d3baa8d27d383",
	"non-free/binary-i386/Packages":     "497184ddb1dc525de81a1bd98ac97175b176d15ead076680d3e8d27b0b5329c8",
	"non-free/source/Sources":           "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
}

func TestParseRelease(t *testing.T) {
	t.Parallel()

	rel, err := ParseRelease(releaseText)
	require.NoError(t, err)
	require.Equal(t, []string{"amd64", "i386"}, rel.Architectures)
	require.Equal(t, wantDigests, rel.SHA256)
	require.Equal(t, "testing", rel.Suite)
	require.Equal(t, "Wed, 27 Apr 2022 12:30:15 UTC", rel.Date)
	require.True(t, rel.SupportsArchitecture("amd64"))
	require.False(t, rel.SupportsArchitecture("arm64"))
}

// TestParseRelease_SectionOrder moves the digest section ahead of unrelated fields.
func TestParseRelease_SectionOrder(t *testing.T) {
	t.Parallel()

	text := "SHA256:\r\n" +
		" 7eb86d0a8bbbfb356b2c641f039214ad30f7f5d7faabdf546d5f83d4f0f574cd 1220 non-free/binary-amd64/Packages\r\n" +
		" 8c55f74c379873d3b4bb63b7e05eff20705e9f08348b93b9e20d3baa8d27d383  665 non-free/binary-amd64/Packages.gz\r\n" +
		" 497184ddb1dc525de81a1bd98ac97175b176d15ead076680d3e8d27b0b5329c8 1067 non-free/binary-i386/Packages\r\n" +
		" e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855    0 non-free/source/Sources\r\n" +
		"Acquire-By-Hash: yes\r\n" +
		"MD5Sum:\r\n" +
		" edf4635027ed7a5df78633d70657834e 1220 non-free/binary-amd64/Packages\r\n" +
		"Architectures: amd64 i386\r\n"

	rel, err := ParseRelease(text)
	require.NoError(t, err)
	require.Equal(t, []string{"amd64", "i386"}, rel.Architectures)
	require.Equal(t, wantDigests, rel.SHA256)
}

func TestParseRelease_Partial(t *testing.T) {
	t.Parallel()

	rel, err := ParseRelease("Origin: nobody\nUnknown-Section:\n whatever goes here\n")
	require.NoError(t, err)
	require.Empty(t, rel.Architectures)
	require.Empty(t, rel.SHA256)

	_, err = rel.Digest("non-free/binary-amd64/Packages")
	require.ErrorIs(t, err, ErrMissingDigest)
}

func TestParseRelease_MalformedDigestLine(t *testing.T) {
	t.Parallel()

	_, err := ParseRelease("SHA256:\n 7eb86d0a8bbbfb356b2c641f039214ad30f7f5d7faabdf546d5f83d4f0f574cd\n")
	require.ErrorIs(t, err, ErrMalformedLine)
}

func TestDigestAndIndexPath(t *testing.T) {
	t.Parallel()

	rel, err := ParseRelease(releaseText)
	require.NoError(t, err)

	path := IndexPath("non-free", "amd64")
	require.Equal(t, "non-free/binary-amd64/Packages", path)

	digest, err := rel.Digest(path)
	require.NoError(t, err)
	require.Equal(t, wantDigests[path], digest)
}
