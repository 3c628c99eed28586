package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/store"
)

// fakeNotifier records notifications synchronously.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	count map[string]int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{count: make(map[string]int)}
}

func (f *fakeNotifier) Notify(title, subtitle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, title+": "+subtitle)
	f.count[subtitle]++
}

func (f *fakeNotifier) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fixedNow is a date matching no calendar rule, at an unremarkable time.
func fixedNow() time.Time {
	return time.Date(2026, time.June, 3, 15, 30, 0, 0, time.Local)
}

func newTestLedger(t *testing.T) (*Ledger, *store.FakeStore, *fakeNotifier) {
	t.Helper()
	s := store.NewFakeStore()
	n := newFakeNotifier()
	l := New(s, n, Options{PersistDelay: time.Hour, Now: fixedNow})
	return l, s, n
}

func TestDefaultsOnFirstRun(t *testing.T) {
	l, _, _ := newTestLedger(t)

	if l.Points() != 0 || l.DonatedTotal() != 0 || l.RecruitCount() != 0 {
		t.Errorf("expected zero counters, got points=%d donated=%d recruits=%d",
			l.Points(), l.DonatedTotal(), l.RecruitCount())
	}
	if l.HighCPUMode() {
		t.Error("expected high CPU mode off by default")
	}
	if len(l.Achievements()) != 0 {
		t.Errorf("expected no achievements, got %v", l.Achievements())
	}
	if l.UUID() == "" {
		t.Error("expected identity to be generated on first run")
	}
}

func TestIdentityIsStable(t *testing.T) {
	s := store.NewFakeStore()
	l1 := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	id := l1.UUID()
	l1.Close()

	l2 := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	if l2.UUID() != id {
		t.Errorf("identity changed across restarts: %s vs %s", id, l2.UUID())
	}
}

func TestLoadFailureStartsFresh(t *testing.T) {
	s := store.NewFakeStore()
	s.LoadError = errors.New("disk on fire")
	l := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	if l.UUID() == "" {
		t.Error("expected a fresh identity despite load failure")
	}
}

func TestSetPointsMilestone(t *testing.T) {
	l, _, n := newTestLedger(t)

	l.SetPoints(41)
	if l.Unlocked(achieve.Reached42) {
		t.Error("milestone should not unlock at 41")
	}

	l.SetPoints(42)
	if !l.Unlocked(achieve.Reached42) {
		t.Error("milestone should unlock at 42")
	}
	first := n.total()

	// Re-setting the same value must not duplicate anything.
	l.SetPoints(42)
	if n.total() != first {
		t.Errorf("expected no new notification on repeat SetPoints, got %d -> %d", first, n.total())
	}
	if got := len(l.Achievements()); got != 1 {
		t.Errorf("expected 1 achievement, got %d", got)
	}
}

func TestDonateInsufficientBalance(t *testing.T) {
	l, _, _ := newTestLedger(t)
	l.SetPoints(100)

	for _, amount := range []int{0, -5, 101} {
		if err := l.Donate(amount); !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Donate(%d): expected ErrInsufficientBalance, got %v", amount, err)
		}
	}
	if l.Points() != 100 || l.DonatedTotal() != 0 {
		t.Errorf("failed donation must not change state: points=%d donated=%d",
			l.Points(), l.DonatedTotal())
	}
}

func TestDonateScenario(t *testing.T) {
	// The two-donation scenario: 1000 points, donate 500, then donate 1.
	l, _, _ := newTestLedger(t)
	l.SetPoints(1000)

	if err := l.Donate(500); err != nil {
		t.Fatalf("Donate(500): %v", err)
	}
	if l.Points() != 500 || l.DonatedTotal() != 500 {
		t.Errorf("after Donate(500): points=%d donated=%d", l.Points(), l.DonatedTotal())
	}
	if !l.Unlocked(achieve.FirstDonation) {
		t.Errorf("expected %s after first donation", achieve.FirstDonation)
	}
	if !l.Unlocked(achieve.BigDonation) {
		t.Errorf("expected %s for a 500-heart donation", achieve.BigDonation)
	}
	if l.Unlocked(achieve.RepeatDonor) {
		t.Errorf("did not expect %s on the first donation", achieve.RepeatDonor)
	}

	if err := l.Donate(1); err != nil {
		t.Fatalf("Donate(1): %v", err)
	}
	if l.Points() != 499 || l.DonatedTotal() != 501 {
		t.Errorf("after Donate(1): points=%d donated=%d", l.Points(), l.DonatedTotal())
	}
	if !l.Unlocked(achieve.RepeatDonor) {
		t.Errorf("expected %s on the second donation", achieve.RepeatDonor)
	}
}

func TestDonateCalendarRule(t *testing.T) {
	s := store.NewFakeStore()
	valentines := time.Date(2026, time.February, 14, 15, 30, 0, 0, time.Local)
	l := New(s, nil, Options{PersistDelay: time.Hour, Now: func() time.Time { return valentines }})

	l.SetPoints(10)
	if err := l.Donate(5); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if !l.Unlocked(achieve.Valentines) {
		t.Errorf("expected %s for a Valentine's Day donation", achieve.Valentines)
	}
}

func TestSetRecruitCountMonotone(t *testing.T) {
	l, _, n := newTestLedger(t)
	l.SetRecruitCount(3)

	if l.RecruitCount() != 3 {
		t.Errorf("expected recruit count 3, got %d", l.RecruitCount())
	}
	if l.Points() != 3*HeartsPerRecruit {
		t.Errorf("expected %d points, got %d", 3*HeartsPerRecruit, l.Points())
	}
	if !l.Unlocked(achieve.Recruited1) || !l.Unlocked(achieve.Recruited3) {
		t.Error("expected recruit achievements for thresholds 1 and 3")
	}
	before := n.total()
	pointsBefore := l.Points()

	// Equal and smaller values are ignored entirely.
	l.SetRecruitCount(3)
	l.SetRecruitCount(1)
	if l.RecruitCount() != 3 || l.Points() != pointsBefore || n.total() != before {
		t.Error("stale recruit counts must not change state or notify")
	}

	// A strictly larger value awards exactly delta * HeartsPerRecruit.
	l.SetRecruitCount(5)
	if l.Points() != pointsBefore+2*HeartsPerRecruit {
		t.Errorf("expected %d points after delta of 2, got %d",
			pointsBefore+2*HeartsPerRecruit, l.Points())
	}
}

func TestFriendJoinedNotificationOncePerIncrease(t *testing.T) {
	l, _, n := newTestLedger(t)

	l.SetRecruitCount(1)
	l.SetRecruitCount(1)
	l.SetRecruitCount(2)

	n.mu.Lock()
	joined := 0
	for _, s := range n.sent {
		if s == "One of your friends just joined!: Thanks for sharing Compute for Humanity! 😊" {
			joined++
		}
	}
	n.mu.Unlock()
	if joined != 2 {
		t.Errorf("expected 2 friend-joined notifications, got %d", joined)
	}
}

func TestUnlockIdempotent(t *testing.T) {
	l, _, n := newTestLedger(t)

	l.Unlock(achieve.FirstDonation)
	l.Unlock(achieve.FirstDonation)

	if got := len(l.Achievements()); got != 1 {
		t.Errorf("expected 1 set member, got %d", got)
	}
	if n.total() != 1 {
		t.Errorf("expected exactly 1 notification, got %d", n.total())
	}
}

func TestHighCPUModePersists(t *testing.T) {
	s := store.NewFakeStore()
	l := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	l.SetHighCPUMode(true)
	l.Close()

	l2 := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	if !l2.HighCPUMode() {
		t.Error("expected high CPU mode to survive a restart")
	}
}

func TestRoundTripReproducesState(t *testing.T) {
	s := store.NewFakeStore()
	l := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	l.SetPoints(1000)
	if err := l.Donate(500); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	l.SetRecruitCount(2)
	l.SetHighCPUMode(true)
	l.Close()

	l2 := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})
	if l2.UUID() != l.UUID() ||
		l2.Points() != l.Points() ||
		l2.DonatedTotal() != l.DonatedTotal() ||
		l2.RecruitCount() != l.RecruitCount() ||
		l2.HighCPUMode() != l.HighCPUMode() {
		t.Errorf("reloaded state differs: %+v vs original", l2)
	}
	a, b := l.Achievements(), l2.Achievements()
	if len(a) != len(b) {
		t.Fatalf("achievement count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("achievement %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestPersistenceIsDebounced(t *testing.T) {
	s := store.NewFakeStore()
	l := New(s, nil, Options{PersistDelay: 30 * time.Millisecond, Now: fixedNow})
	// New schedules the first-run write; let it settle.
	time.Sleep(60 * time.Millisecond)
	_, base := s.Saved()

	for i := 0; i < 10; i++ {
		l.SetPoints(i)
	}
	time.Sleep(90 * time.Millisecond)

	rec, saves := s.Saved()
	if saves != base+1 {
		t.Errorf("expected 1 debounced save for the burst, got %d", saves-base)
	}
	if rec.Points != 9 {
		t.Errorf("expected final points 9 on disk, got %d", rec.Points)
	}
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	s := store.NewFakeStore()
	s.SaveError = errors.New("read-only filesystem")
	l := New(s, nil, Options{PersistDelay: time.Hour, Now: fixedNow})

	l.SetPoints(7)
	l.Close() // flush fails, logged

	if l.Points() != 7 {
		t.Error("in-memory state must stay authoritative after a persist failure")
	}

	// Once the store recovers, the next flush succeeds.
	s.SaveError = nil
	l.SetPoints(8)
	l.Close()
	rec, _ := s.Saved()
	if rec.Points != 8 {
		t.Errorf("expected recovery write with points 8, got %d", rec.Points)
	}
}
