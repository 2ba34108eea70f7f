// Package ui shows download progress and errors, with zenity when a
// graphical session is available and on the terminal otherwise.
package ui
