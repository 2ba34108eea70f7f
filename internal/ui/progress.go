package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/schollz/progressbar/v3"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

const zenityBinary = "zenity"

// Reporter displays a percentage.
type Reporter interface {
	Update(percent int) error
	Close() error
}

// NewReporter returns a Reporter that opens its display on the first update,
// so runs without a download never flash a dialog.
func NewReporter(ctx context.Context) Reporter {
	return &deferred{ctx: ctx}
}

type deferred struct {
	ctx context.Context //nolint:containedctx // Needed to spawn zenity on first use.
	r   Reporter
}

func (d *deferred) Update(percent int) error {
	if d.r == nil {
		d.r = pick(d.ctx)
	}

	return d.r.Update(percent)
}

func (d *deferred) Close() error {
	if d.r == nil {
		return nil
	}

	return d.r.Close()
}

// pick selects zenity in a graphical session, a progress bar on a
// terminal, and nothing otherwise.
func pick(ctx context.Context) Reporter {
	if hasDisplay() {
		if path, err := exec.LookPath(zenityBinary); err == nil {
			z, err := SpawnZenity(ctx, path)
			if err == nil {
				return z
			}

			logger.Warnf(ctx, "Failed to spawn zenity: %v", err)
		}
	}

	if isTerminal(os.Stderr) {
		return NewTerminal(os.Stderr)
	}

	return Nop{}
}

// Zenity is a `zenity --progress` dialog fed through its stdin.
type Zenity struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// SpawnZenity starts the progress dialog using binary.
func SpawnZenity(ctx context.Context, binary string) (*Zenity, error) {
	//nolint:gosec // The binary is zenity from PATH or a test double.
	cmd := exec.CommandContext(ctx, binary,
		"--progress",
		"--title", "Downloading spotify",
		"--text=Downloading...",
		"--no-cancel",
		"--ok-label", "😺",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn zenity: %w", err)
	}

	return &Zenity{cmd: cmd, stdin: stdin}, nil
}

// Update sends percent to the dialog.
func (z *Zenity) Update(percent int) error {
	_, err := fmt.Fprintf(z.stdin, "%d\n", percent)

	return err
}

// Close kills the dialog.
func (z *Zenity) Close() error {
	_ = z.stdin.Close()

	if err := z.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	// Killed on purpose, the exit status carries no information.
	_ = z.cmd.Wait()

	return nil
}

// Terminal is a text progress bar.
type Terminal struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewTerminal draws a progress bar to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w: w,
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Downloading spotify"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowDescriptionAtLineEnd(),
		),
	}
}

// Update moves the bar to percent.
func (t *Terminal) Update(percent int) error {
	return t.bar.Set(percent)
}

// Close completes the bar.
func (t *Terminal) Close() error {
	if err := t.bar.Finish(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(t.w)

	return err
}

// Nop discards progress.
type Nop struct{}

// Update does nothing.
func (Nop) Update(int) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
