package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errInactive = errors.New("inactivity timeout")

// watchdog cancels its context when it is armed for longer than d.
// A zero d never fires.
type watchdog struct {
	mu     sync.Mutex
	d      time.Duration
	timer  *time.Timer
	cancel context.CancelCauseFunc
}

func newWatchdog(parent context.Context, d time.Duration) (context.Context, *watchdog) {
	ctx, cancel := context.WithCancelCause(parent)

	return ctx, &watchdog{d: d, cancel: cancel}
}

// arm starts a fresh period of d.
func (w *watchdog) arm() {
	if w.d <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer == nil {
		w.timer = time.AfterFunc(w.d, func() { w.cancel(errInactive) })

		return
	}

	w.timer.Reset(w.d)
}

// disarm stops the running period without cancelling.
func (w *watchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}

// stop disarms the watchdog and releases its context.
func (w *watchdog) stop() {
	w.disarm()
	w.cancel(context.Canceled)
}
