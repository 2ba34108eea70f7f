package ui

import (
	"context"
	"os/exec"
	"strings"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

// Chain splits err into the message of each wrapping layer, outermost first.
func Chain(err error) []string {
	var chain []string

	for e := err; e != nil; e = cause(e) {
		msg := e.Error()

		if next := cause(e); next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}

		chain = append(chain, msg)
	}

	return chain
}

// cause is the error err wraps. For errors joining several, such as
// fmt.Errorf("%w: %w", sentinel, err), it is the last one.
func cause(err error) error {
	switch e := err.(type) { //nolint:errorlint // Walks one layer at a time.
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := e.Unwrap(); len(errs) > 0 {
			return errs[len(errs)-1]
		}
	}

	return nil
}

// FormatError renders err with its causes, innermost last.
func FormatError(err error) string {
	chain := Chain(err)
	if len(chain) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(chain[0])

	if len(chain) > 1 {
		b.WriteString("\n\nCaused by:")

		for _, cause := range chain[1:] {
			b.WriteString("\n    ")
			b.WriteString(cause)
		}
	}

	return b.String()
}

// ShowError logs err and, in a graphical session, shows it in a dialog.
func ShowError(ctx context.Context, err error) {
	message := FormatError(err)
	logger.Error(ctx, message)

	if !hasDisplay() {
		return
	}

	path, lookErr := exec.LookPath(zenityBinary)
	if lookErr != nil {
		return
	}

	//nolint:gosec // zenity from PATH.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), path,
		"--error", "--title", "spotify-launcher", "--text", message)
	if runErr := cmd.Run(); runErr != nil {
		logger.Debugf(ctx, "Failed to display error dialog: %v", runErr)
	}
}
