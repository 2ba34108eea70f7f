package checksum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSHA256Hex(t *testing.T) {
	t.Parallel()

	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(nil))
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", SHA256Hex([]byte("hello")))
	require.Equal(t, SHA256Hex([]byte("hello")), SHA256Hex([]byte("hello")))
}

// TestHasher_ChunkSplits hashes the same payload with different chunk boundaries.
func TestHasher_ChunkSplits(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("spotify-client"), 997)
	want := SHA256Hex(payload)

	for _, size := range []int{1, 3, 64, 1000, 4096, len(payload)} {
		h := NewSHA256()

		for start := 0; start < len(payload); start += size {
			end := min(start+size, len(payload))
			_, err := h.Write(payload[start:end])
			require.NoError(t, err)
		}

		require.Equal(t, want, h.Hex(), "chunk size %d", size)
		require.Equal(t, uint64(len(payload)), h.Len())
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	require.True(t, Equal("ABC123", "abc123"))
	require.True(t, Equal(" abc123\n", "abc123"))
	require.False(t, Equal("abc123", "abc124"))
	require.False(t, Equal("abc123", "abc12"))
}
