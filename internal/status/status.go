// Package status provides a thread-safe status tracker for the agent.
// It is read by HTTP handlers and formatted into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/sched"
)

// Progress mirrors the ledger fields shown to the user.
type Progress struct {
	Points       int
	DonatedTotal int
	RecruitCount int
	Achievements []achieve.ID
}

// Config contains agent configuration for display.
type Config struct {
	ResumeSec     int64
	WindowSec     int64
	WindowHighSec int64
	ThermalPollMs int64
	Broker        string
	HTTPPort      string
	BaseURL       string
}

// Snapshot is a point-in-time view of agent state. It is a value type,
// safe to use after the lock is released.
type Snapshot struct {
	State       sched.State
	BlockReason sched.BlockReason
	ThermalSafe bool
	UserPaused  bool
	HighCPU     bool

	Progress Progress

	// GlobalDonated is the aggregator's display string for donations
	// across all users, verbatim from the last heartbeat response.
	GlobalDonated string

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the agent started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable agent state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:       sched.StateBlocked,
			BlockReason: sched.ReasonThermal,
			StartTime:   startTime,
			Config:      cfg,
		},
	}
}

// UpdateScheduler sets the scheduler view. Called from the control loop
// after every state-affecting event.
func (t *Tracker) UpdateScheduler(state sched.State, reason sched.BlockReason, thermalSafe, paused, highCPU bool) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.BlockReason = reason
	t.snap.ThermalSafe = thermalSafe
	t.snap.UserPaused = paused
	t.snap.HighCPU = highCPU
	t.mu.Unlock()
}

// UpdateProgress sets the ledger view.
func (t *Tracker) UpdateProgress(p Progress) {
	t.mu.Lock()
	t.snap.Progress = p
	t.mu.Unlock()
}

// SetGlobalDonated sets the aggregator's global donation figure.
func (t *Tracker) SetGlobalDonated(s string) {
	t.mu.Lock()
	t.snap.GlobalDonated = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the agent state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	if s.Progress.Achievements != nil {
		achievements := make([]achieve.ID, len(s.Progress.Achievements))
		copy(achievements, s.Progress.Achievements)
		s.Progress.Achievements = achievements
	}
	s.Now = time.Now()
	return s
}
