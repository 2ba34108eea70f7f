// Package release contains the repository metadata types and their parsers.
//
// Release is the signed top-level descriptor listing architectures and the
// SHA-256 digests of the index files. Package is one stanza of the
// per-architecture Packages index. Both are immutable once parsed.
package release
