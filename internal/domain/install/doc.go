// Package install holds the record of what is installed and when the
// repository was last checked.
package install
