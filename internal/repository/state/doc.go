// Package state persists the install record between runs.
//
// The FileRepository stores the record as YAML and replaces the file
// atomically, so a crash leaves either the old or the new record.
package state
