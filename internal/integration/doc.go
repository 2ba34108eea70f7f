// Package integration runs the spotify-launcher command end to end against
// a signed repository served over HTTP.
package integration
