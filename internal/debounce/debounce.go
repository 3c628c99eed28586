// Package debounce provides a trailing-edge call coalescer: many calls in
// quick succession collapse into a single invocation of the wrapped
// function, delay after the last call. Used for ledger persistence, but
// generic over any zero-argument action.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces calls to a function. The function runs on a timer
// goroutine, so it must be safe to call off the control loop (or must
// itself marshal back onto it).
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
}

// New creates a Debouncer that invokes fn delay after the most recent Call.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Call schedules fn to run after the configured delay, cancelling any
// previously scheduled run. The call is never made on the leading edge.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending invocation. It reports whether a call was
// pending. Stopping an idle Debouncer is a no-op.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Flush cancels any pending invocation and, if one was pending, runs fn
// synchronously now. Used at shutdown to force the final write out.
func (d *Debouncer) Flush() {
	if d.Stop() {
		d.fn()
	}
}
