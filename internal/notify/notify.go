// Package notify delivers user-visible notifications through a pluggable
// sink, spacing deliveries at least a fixed interval apart. Nothing is
// dropped or coalesced: a burst of notifications is queued into the
// future, one delivery slot per notification.
package notify

import (
	"log"
	"sync"
	"time"
)

// DefaultInterval is the minimum spacing between deliveries.
const DefaultInterval = 6 * time.Second

// Sink is the transport that actually delivers a notification.
// Implementations must be safe for concurrent use; deliveries happen on
// timer goroutines.
type Sink interface {
	Deliver(title, subtitle string) error
}

// Dispatcher rate-limits notifications by scheduling future delivery
// times rather than dropping events.
type Dispatcher struct {
	mu       sync.Mutex
	sink     Sink
	interval time.Duration
	next     time.Time

	// now and schedule are injectable for tests.
	now      func() time.Time
	schedule func(d time.Duration, f func())
}

// NewDispatcher creates a Dispatcher delivering through sink with the
// given minimum spacing.
func NewDispatcher(sink Sink, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		sink:     sink,
		interval: interval,
		now:      time.Now,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Notify schedules a notification for delivery. The delivery happens at
// the later of now and the previously scheduled slot; the next slot is
// pushed out by the interval. Guaranteed to deliver eventually.
func (d *Dispatcher) Notify(title, subtitle string) {
	d.mu.Lock()

	now := d.now()
	at := d.next
	if at.Before(now) {
		at = now
	}
	d.next = at.Add(d.interval)

	d.mu.Unlock()

	d.schedule(at.Sub(now), func() {
		if err := d.sink.Deliver(title, subtitle); err != nil {
			log.Printf("notify: deliver %q: %v", title, err)
		}
	})
}

// LogSink writes notifications to the process log. Used when no other
// transport is configured.
type LogSink struct{}

// Deliver logs the notification.
func (LogSink) Deliver(title, subtitle string) error {
	log.Printf("notification: %s / %s", title, subtitle)
	return nil
}

// FakeSink records deliveries for test assertions.
type FakeSink struct {
	mu         sync.Mutex
	Deliveries []Delivery

	// Err, if set, is returned by Deliver.
	Err error
}

// Delivery is one recorded notification.
type Delivery struct {
	Title    string
	Subtitle string
}

// Deliver records the notification.
func (f *FakeSink) Deliver(title, subtitle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Deliveries = append(f.Deliveries, Delivery{Title: title, Subtitle: subtitle})
	return nil
}

// Recorded returns a copy of the deliveries so far.
func (f *FakeSink) Recorded() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Delivery, len(f.Deliveries))
	copy(out, f.Deliveries)
	return out
}
