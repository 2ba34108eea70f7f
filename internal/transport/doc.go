// Package transport is the HTTP client used to talk to the package repository.
//
// Every operation is bounded by an inactivity timeout. Streams support
// resuming from a byte offset and refuse servers that ignore the range.
package transport
