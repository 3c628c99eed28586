package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/heartbeat"
	"github.com/computeforhumanity/compute-agent/internal/ledger"
	"github.com/computeforhumanity/compute-agent/internal/sched"
	"github.com/computeforhumanity/compute-agent/internal/store"
	"github.com/computeforhumanity/compute-agent/internal/worker"
)

// recordingNotifier collects notifications without any throttling.
type recordingNotifier struct {
	titles    []string
	subtitles []string
}

func (n *recordingNotifier) Notify(title, subtitle string) {
	n.titles = append(n.titles, title)
	n.subtitles = append(n.subtitles, subtitle)
}

func (n *recordingNotifier) countTitled(title string) int {
	c := 0
	for _, t := range n.titles {
		if t == title {
			c++
		}
	}
	return c
}

// TestIntegrationProgressRoundTrip drives the ledger through earning,
// recruiting, and donating, then reloads the saved record into a fresh
// ledger and checks nothing was lost.
func TestIntegrationProgressRoundTrip(t *testing.T) {
	st := store.NewFakeStore()
	notifier := &recordingNotifier{}
	at := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)

	led := ledger.New(st, notifier, ledger.Options{
		PersistDelay: time.Hour,
		Now:          func() time.Time { return at },
	})

	// Earn past the points milestone.
	led.SetPoints(42)
	if !led.Unlocked(achieve.Reached42) {
		t.Error("expected points milestone unlocked at 42")
	}

	// Two recruits arrive from a heartbeat response.
	led.SetRecruitCount(2)
	if led.Points() != 42+2*ledger.HeartsPerRecruit {
		t.Errorf("points after recruits: got %d, want %d", led.Points(), 42+2*ledger.HeartsPerRecruit)
	}
	if !led.Unlocked(achieve.Recruited1) {
		t.Error("expected first recruit achievement")
	}
	if led.Unlocked(achieve.Recruited3) {
		t.Error("recruit threshold 3 not reached yet")
	}

	// Donate part of the balance on an ordinary day.
	if err := led.Donate(100); err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if led.DonatedTotal() != 100 {
		t.Errorf("donated total: got %d, want 100", led.DonatedTotal())
	}
	if !led.Unlocked(achieve.FirstDonation) {
		t.Error("expected first donation achievement")
	}

	led.Close()

	rec, saves := st.Saved()
	if saves == 0 {
		t.Fatal("expected at least one save")
	}
	if rec.UUID == "" {
		t.Error("saved record missing identity")
	}

	// A fresh ledger over the same store must see identical state.
	led2 := ledger.New(st, &recordingNotifier{}, ledger.Options{PersistDelay: time.Hour})
	if led2.UUID() != led.UUID() {
		t.Error("identity changed across reload")
	}
	if led2.Points() != led.Points() {
		t.Errorf("points changed across reload: %d vs %d", led2.Points(), led.Points())
	}
	if led2.RecruitCount() != 2 {
		t.Errorf("recruits changed across reload: got %d", led2.RecruitCount())
	}
	if !led2.Unlocked(achieve.Reached42) || !led2.Unlocked(achieve.FirstDonation) {
		t.Error("achievements lost across reload")
	}
}

// TestIntegrationHolidayDonation donates at noon on Christmas and checks
// the stacked achievement unlocks arrive with notifications.
func TestIntegrationHolidayDonation(t *testing.T) {
	st := store.NewFakeStore()
	notifier := &recordingNotifier{}
	at := time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC)

	led := ledger.New(st, notifier, ledger.Options{
		PersistDelay: time.Hour,
		Now:          func() time.Time { return at },
	})
	led.SetPoints(600)

	if err := led.Donate(500); err != nil {
		t.Fatalf("Donate: %v", err)
	}

	for _, id := range []achieve.ID{
		achieve.FirstDonation,
		achieve.BigDonation,
		achieve.NoonGift,
		achieve.Christmas,
	} {
		if !led.Unlocked(id) {
			t.Errorf("expected %s unlocked", id)
		}
	}
	// Calendar unlocks are exclusive per donation; Christmas was the
	// only possible one.
	if led.Unlocked(achieve.NewYearsEve) {
		t.Error("unexpected calendar achievement")
	}

	// One accomplishment notification per unlock.
	if got := notifier.countTitled("🏆 accomplished!"); got != 4 {
		t.Errorf("accomplishment notifications: got %d, want 4", got)
	}
}

// TestIntegrationHeartbeatUpdatesLedger runs a fake aggregator and checks
// the heartbeat response flows through the control loop into the ledger.
func TestIntegrationHeartbeatUpdatesLedger(t *testing.T) {
	var gotPath, gotUUID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUUID = r.URL.Query().Get("uuid")
		w.Write([]byte(`{"donated":"$4,289","nRecruits":5}`))
	}))
	defer ts.Close()

	st := store.NewFakeStore()
	led := ledger.New(st, &recordingNotifier{}, ledger.Options{PersistDelay: time.Hour})

	calls := make(chan func(), 8)
	var globalDonated string
	client := heartbeat.NewClient(ts.URL, led.UUID(), func(f func()) { calls <- f }, func(u heartbeat.Update) {
		globalDonated = u.Donated
		if u.HasRecruits {
			led.SetRecruitCount(u.Recruits)
		}
	})

	client.ReportActive(true)

	select {
	case f := <-calls:
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat response never reached the control loop")
	}

	if gotPath != "/heartbeat" {
		t.Errorf("path: got %q, want /heartbeat", gotPath)
	}
	if gotUUID != led.UUID() {
		t.Errorf("uuid: got %q, want %q", gotUUID, led.UUID())
	}
	if globalDonated != "$4,289" {
		t.Errorf("global donated: got %q", globalDonated)
	}
	if led.RecruitCount() != 5 {
		t.Errorf("recruits: got %d, want 5", led.RecruitCount())
	}
	if led.Points() != 5*ledger.HeartsPerRecruit {
		t.Errorf("points: got %d, want %d", led.Points(), 5*ledger.HeartsPerRecruit)
	}
	if !led.Unlocked(achieve.Recruited3) {
		t.Error("expected recruit achievements from heartbeat update")
	}
}

// TestIntegrationDutyCycle runs the scheduler against real timers with
// short intervals and checks the worker is cycled and hearts accrue.
func TestIntegrationDutyCycle(t *testing.T) {
	st := store.NewFakeStore()
	led := ledger.New(st, &recordingNotifier{}, ledger.Options{PersistDelay: time.Hour})
	proc := worker.NewFakeProcess()
	reporter := heartbeat.NewFakeReporter()

	calls := make(chan func(), 64)
	s := sched.New(sched.Config{
		ResumeInterval:  15 * time.Millisecond,
		WindowNormal:    5 * time.Millisecond,
		WindowHigh:      10 * time.Millisecond,
		HeartRateNormal: 1,
		HeartRateHigh:   3,
	}, proc, led, reporter, func(f func()) { calls <- f })

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.SetThermalSafe(true)

	// Service the control loop long enough for a few full cycles.
	deadline := time.After(200 * time.Millisecond)
loop:
	for {
		select {
		case f := <-calls:
			f()
		case <-deadline:
			break loop
		}
	}

	s.Shutdown()

	if got := proc.Count("resume"); got < 2 {
		t.Errorf("expected at least 2 worker resumes, got %d", got)
	}
	if led.Points() < 2 {
		t.Errorf("expected at least 2 hearts earned, got %d", led.Points())
	}
	if reporter.ActiveCount() < 3 { // unblock plus one per cycle
		t.Errorf("expected at least 3 active reports, got %d", reporter.ActiveCount())
	}
	if reporter.InactiveCount() != 1 {
		t.Errorf("expected 1 inactive report on shutdown, got %d", reporter.InactiveCount())
	}
	if proc.Count("terminate") != 1 || !proc.Waited {
		t.Error("expected worker terminated and waited on shutdown")
	}
	if s.State() != sched.StateTerminated {
		t.Errorf("expected TERMINATED, got %s", s.State())
	}
}
