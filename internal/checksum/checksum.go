// Package checksum computes the SHA-256 digests that anchor the trust chain.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strings"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

// Hasher accumulates a SHA-256 digest over chunks.
// Splitting the input differently never changes the result.
type Hasher struct {
	h hash.Hash
	n uint64
}

// NewSHA256 returns an empty Hasher.
func NewSHA256() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write feeds p into the digest. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	n, _ := h.h.Write(p)
	h.n += uint64(n)

	return n, nil
}

// Len is the number of bytes hashed so far.
func (h *Hasher) Len() uint64 {
	return h.n
}

// Hex returns the lowercase hex digest of everything written so far.
func (h *Hasher) Hex() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// Equal compares two hex digests case-insensitively in constant time.
func Equal(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
