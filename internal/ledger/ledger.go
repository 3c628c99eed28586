// Package ledger owns the persisted progress state: reward points
// ("hearts"), donation totals, recruit counts and unlocked achievements.
// Every mutation schedules a debounced full-state write, so bursts of
// changes collapse into one disk write; in-memory state stays
// authoritative even when a write fails.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/debounce"
	"github.com/computeforhumanity/compute-agent/internal/store"
)

// HeartsPerRecruit is the points award per newly reported recruit.
const HeartsPerRecruit = 999

// DefaultPersistDelay is the debounce window for disk writes.
const DefaultPersistDelay = time.Second

// ErrInsufficientBalance is returned by Donate when the amount is not
// positive or exceeds the available points.
var ErrInsufficientBalance = errors.New("insufficient hearts balance")

// Notifier delivers user-visible notifications. Satisfied by
// notify.Dispatcher.
type Notifier interface {
	Notify(title, subtitle string)
}

// Ledger is the single source of truth for progress state. Methods are
// safe for concurrent use; in practice all mutations arrive on the
// control loop and the mutex only covers the debounced flush goroutine.
type Ledger struct {
	mu       sync.Mutex
	store    store.Store
	notifier Notifier
	rec      store.Record
	unlocked map[achieve.ID]bool
	persist  *debounce.Debouncer

	// now is injectable for calendar-rule tests.
	now func() time.Time
}

// Options tunes a Ledger. Zero values select defaults.
type Options struct {
	PersistDelay time.Duration
	Now          func() time.Time
}

// New loads the record from s (defaulting missing fields and generating
// an identity on first run) and returns a ready Ledger. A load failure is
// logged and treated as first run; it never prevents startup.
func New(s store.Store, notifier Notifier, opts Options) *Ledger {
	if opts.PersistDelay == 0 {
		opts.PersistDelay = DefaultPersistDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rec, exists, err := s.Load()
	if err != nil {
		log.Printf("ledger: load: %v (starting fresh)", err)
		rec = store.Record{}
		exists = false
	}

	l := &Ledger{
		store:    s,
		notifier: notifier,
		rec:      rec,
		unlocked: make(map[achieve.ID]bool, len(rec.Achievements)),
		now:      opts.Now,
	}
	for _, id := range rec.Achievements {
		l.unlocked[achieve.ID(id)] = true
	}
	l.persist = debounce.New(opts.PersistDelay, l.writeNow)

	if l.rec.UUID == "" {
		l.rec.UUID = uuid.NewString()
		log.Printf("ledger: generated identity %s", l.rec.UUID)
	}
	if !exists || rec.UUID == "" {
		// Make sure first-run state (notably the identity) reaches disk.
		l.persist.Call()
	}
	return l
}

// UUID returns the stable node identity.
func (l *Ledger) UUID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.UUID
}

// Points returns the unspent hearts balance.
func (l *Ledger) Points() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Points
}

// DonatedTotal returns the cumulative hearts donated.
func (l *Ledger) DonatedTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.DonatedTotal
}

// RecruitCount returns the last known recruit count.
func (l *Ledger) RecruitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.RecruitCount
}

// HighCPUMode returns the persisted intensity preference.
func (l *Ledger) HighCPUMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.HighCPUMode
}

// Achievements returns the unlocked achievement IDs in unlock order.
func (l *Ledger) Achievements() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.rec.Achievements))
	copy(out, l.rec.Achievements)
	return out
}

// Unlocked reports whether the achievement has been unlocked.
func (l *Ledger) Unlocked(id achieve.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unlocked[id]
}

// UnlockedSet returns a copy of the unlocked set, for display filtering.
func (l *Ledger) UnlockedSet() map[achieve.ID]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[achieve.ID]bool, len(l.unlocked))
	for id := range l.unlocked {
		out[id] = true
	}
	return out
}

// SetPoints replaces the points balance and evaluates the points
// milestone rules.
func (l *Ledger) SetPoints(v int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setPoints(v)
	l.persist.Call()
}

// Donate converts amount points into donated total and evaluates the
// donation rules at the current wall-clock time. Fails with
// ErrInsufficientBalance if amount is not positive or exceeds the
// balance, leaving all state unchanged.
func (l *Ledger) Donate(amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 || amount > l.rec.Points {
		return ErrInsufficientBalance
	}

	already := l.rec.DonatedTotal
	l.setPoints(l.rec.Points - amount)
	l.rec.DonatedTotal = already + amount

	for _, id := range achieve.ForDonation(amount, already, l.rec.DonatedTotal, l.now()) {
		l.unlock(id)
	}

	l.persist.Call()
	return nil
}

// SetRecruitCount applies a recruit count reported by the aggregator.
// Values not strictly larger than the current count are ignored, which
// makes stale or out-of-order heartbeat responses safe to apply
// unconditionally. Each new recruit awards HeartsPerRecruit points.
func (l *Ledger) SetRecruitCount(v int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v <= l.rec.RecruitCount {
		return
	}
	delta := v - l.rec.RecruitCount
	l.rec.RecruitCount = v
	l.setPoints(l.rec.Points + delta*HeartsPerRecruit)

	if l.notifier != nil {
		l.notifier.Notify(
			"One of your friends just joined!",
			"Thanks for sharing Compute for Humanity! 😊",
		)
	}

	for _, id := range achieve.ForRecruits(v) {
		l.unlock(id)
	}

	l.persist.Call()
}

// SetHighCPUMode persists the intensity preference.
func (l *Ledger) SetHighCPUMode(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.HighCPUMode = on
	l.persist.Call()
}

// Unlock adds the achievement to the unlocked set and notifies once.
// Unlocking an already unlocked achievement is a no-op.
func (l *Ledger) Unlock(id achieve.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unlock(id) {
		l.persist.Call()
	}
}

// setPoints mutates the balance and runs the milestone rules.
// Caller holds l.mu.
func (l *Ledger) setPoints(v int) {
	l.rec.Points = v
	for _, id := range achieve.ForPoints(v) {
		l.unlock(id)
	}
}

// unlock inserts id if new and emits the unlock notification.
// Caller holds l.mu. Reports whether the set changed.
func (l *Ledger) unlock(id achieve.ID) bool {
	if l.unlocked[id] {
		return false
	}
	l.unlocked[id] = true
	l.rec.Achievements = append(l.rec.Achievements, string(id))

	if l.notifier != nil {
		subtitle := string(id)
		if rule, ok := achieve.Rules[id]; ok {
			subtitle = fmt.Sprintf("%s (%s)", id, rule.Text)
		}
		l.notifier.Notify("🏆 accomplished!", subtitle)
	}
	return true
}

// writeNow flushes the current record to the store. Failures are logged
// and superseded by the next debounced write.
func (l *Ledger) writeNow() {
	l.mu.Lock()
	rec := l.rec
	rec.Achievements = append([]string(nil), l.rec.Achievements...)
	l.mu.Unlock()

	if err := l.store.Save(rec); err != nil {
		log.Printf("ledger: persist: %v", err)
	}
}

// Close cancels any pending debounced write and flushes synchronously.
// Called at shutdown before the worker is terminated.
func (l *Ledger) Close() {
	l.persist.Stop()
	l.writeNow()
}
