// Package launcher starts the installed client in place of this process.
package launcher
