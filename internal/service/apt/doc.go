// Package apt establishes trust in the repository metadata and resolves the
// package to install.
//
// The chain is: signed Release, digest of the Packages index listed in
// Release, digest of the archive listed in the index. Nothing is parsed
// before its signature or digest was checked.
package apt
