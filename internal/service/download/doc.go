// Package download fetches a package body with byte-range resumption and
// verifies it against its declared SHA-256 digest.
package download
