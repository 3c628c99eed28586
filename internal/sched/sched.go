// Package sched duty-cycles the worker process: suspended by default,
// periodically resumed for a bounded active window, gated by the thermal
// state and the user's pause intent. The window/interval ratio bounds
// worst-case CPU use without any cooperation from the worker itself.
//
// The scheduler is single-threaded: all methods must be called from the
// control loop. Its timers fire through the injected post function, so
// timer callbacks re-enter on the control loop as well.
package sched

import (
	"fmt"
	"log"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/heartbeat"
	"github.com/computeforhumanity/compute-agent/internal/worker"
)

// State is the scheduler's lifecycle state.
type State string

const (
	// StateBlocked: not scheduling; see BlockReason.
	StateBlocked State = "BLOCKED"
	// StateIdle: safe to run, worker suspended, waiting for the next cycle.
	StateIdle State = "IDLE"
	// StateActive: worker resumed inside an active window.
	StateActive State = "ACTIVE"
	// StateTerminated: worker terminated; the scheduler is done.
	StateTerminated State = "TERMINATED"
)

// BlockReason says why the scheduler is blocked.
type BlockReason string

const (
	ReasonNone      BlockReason = ""
	ReasonThermal   BlockReason = "THERMAL"
	ReasonUserPause BlockReason = "USER_PAUSE"
)

// Config holds the duty-cycle tunables.
type Config struct {
	// ResumeInterval is the period between active windows.
	ResumeInterval time.Duration

	// WindowNormal and WindowHigh are the active-window durations for
	// the two intensity modes.
	WindowNormal time.Duration
	WindowHigh   time.Duration

	// HeartRateNormal and HeartRateHigh are the points awarded per
	// active window in the two intensity modes.
	HeartRateNormal int
	HeartRateHigh   int
}

// DefaultConfig returns the production duty cycle: a 20s (or 60s in high
// CPU mode) window every 180s.
func DefaultConfig() Config {
	return Config{
		ResumeInterval:  180 * time.Second,
		WindowNormal:    20 * time.Second,
		WindowHigh:      60 * time.Second,
		HeartRateNormal: 1,
		HeartRateHigh:   3,
	}
}

// Ledger is the slice of the progress ledger the scheduler needs to
// award points per active window.
type Ledger interface {
	Points() int
	SetPoints(int)
}

// timer is a cancelable pending callback.
type timer interface {
	Stop() bool
}

// Scheduler owns the worker process handle and the two scheduling
// timers.
type Scheduler struct {
	cfg      Config
	worker   worker.Process
	ledger   Ledger
	reporter heartbeat.Reporter
	post     func(func())

	state       State
	reason      BlockReason
	thermalSafe bool
	userPaused  bool
	highCPU     bool

	resumeTimer timer
	windowTimer timer

	// afterFunc is injectable so tests can fire timers deterministically.
	afterFunc func(d time.Duration, f func()) timer
}

// New creates a Scheduler. post must marshal the given function onto the
// control loop; timer callbacks are delivered through it.
func New(cfg Config, w worker.Process, l Ledger, r heartbeat.Reporter, post func(func())) *Scheduler {
	if post == nil {
		post = func(f func()) { f() }
	}
	s := &Scheduler{
		cfg:      cfg,
		worker:   w,
		ledger:   l,
		reporter: r,
		post:     post,
		state:    StateBlocked,
		reason:   ReasonThermal,
	}
	s.afterFunc = func(d time.Duration, f func()) timer {
		return time.AfterFunc(d, func() { s.post(f) })
	}
	return s
}

// Start launches the worker in a suspended state. A launch failure is
// fatal to scheduling: the worker is only reacquired on the next full
// process start.
func (s *Scheduler) Start() error {
	if err := s.worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	// Launch suspended; the resume timer kicks it off when appropriate.
	if err := s.worker.Suspend(); err != nil {
		log.Printf("sched: initial suspend: %v", err)
	}
	s.state = StateBlocked
	s.reason = ReasonThermal
	return nil
}

// SetThermalSafe applies a thermal state change.
func (s *Scheduler) SetThermalSafe(safe bool) {
	s.thermalSafe = safe
	s.reevaluate()
}

// SetUserPaused applies a user pause/resume toggle.
func (s *Scheduler) SetUserPaused(paused bool) {
	s.userPaused = paused
	s.reevaluate()
}

// SetHighCPUMode switches intensity. It affects subsequent windows only;
// an in-progress active window is never interrupted.
func (s *Scheduler) SetHighCPUMode(on bool) {
	s.highCPU = on
}

// reevaluate applies running = thermalSafe && !userPaused to the state
// machine. Rapid toggling is safe: arming is gated by state and
// canceling an unarmed timer is a no-op.
func (s *Scheduler) reevaluate() {
	if s.state == StateTerminated {
		return
	}

	if s.thermalSafe && !s.userPaused {
		if s.state == StateBlocked {
			s.state = StateIdle
			s.reason = ReasonNone
			s.armResume()
			s.reporter.ReportActive(true)
		}
		return
	}

	// User pause takes precedence over thermal in the reported reason.
	reason := ReasonThermal
	if s.userPaused {
		reason = ReasonUserPause
	}

	if s.state == StateIdle || s.state == StateActive {
		s.stopTimers()
		if s.state == StateActive {
			if err := s.worker.Suspend(); err != nil {
				log.Printf("sched: suspend on block: %v", err)
			}
		}
		s.state = StateBlocked
		s.reporter.ReportInactive()
	}
	s.reason = reason
}

// armResume arms the recurring resume timer. Arming while armed is
// prevented so at most one resume timer is ever live.
func (s *Scheduler) armResume() {
	if s.resumeTimer != nil {
		return
	}
	s.resumeTimer = s.afterFunc(s.cfg.ResumeInterval, s.handleResumeFire)
}

// handleResumeFire opens an active window: resume the worker, arm the
// one-shot window timer, award the cycle's points, heartbeat. Runs on
// the control loop.
func (s *Scheduler) handleResumeFire() {
	if s.state != StateIdle && s.state != StateActive {
		s.resumeTimer = nil
		return
	}

	// Recurring: arm the next cycle regardless of what this one does.
	s.resumeTimer = s.afterFunc(s.cfg.ResumeInterval, s.handleResumeFire)

	if s.state != StateIdle {
		// Window still open; nothing to do this cycle.
		return
	}

	if err := s.worker.Resume(); err != nil {
		// Process already gone; tolerate and stay idle.
		log.Printf("sched: resume worker: %v", err)
		return
	}

	window, rate := s.cfg.WindowNormal, s.cfg.HeartRateNormal
	if s.highCPU {
		window, rate = s.cfg.WindowHigh, s.cfg.HeartRateHigh
	}

	s.state = StateActive
	s.windowTimer = s.afterFunc(window, s.handleWindowFire)

	s.ledger.SetPoints(s.ledger.Points() + rate)
	s.reporter.ReportActive(true)
}

// handleWindowFire closes the active window. Runs on the control loop.
func (s *Scheduler) handleWindowFire() {
	s.windowTimer = nil
	if s.state != StateActive {
		return
	}
	if err := s.worker.Suspend(); err != nil {
		log.Printf("sched: suspend worker: %v", err)
	}
	s.state = StateIdle
}

func (s *Scheduler) stopTimers() {
	if s.resumeTimer != nil {
		s.resumeTimer.Stop()
		s.resumeTimer = nil
	}
	if s.windowTimer != nil {
		s.windowTimer.Stop()
		s.windowTimer = nil
	}
}

// Shutdown cancels the timers, reports inactive, and terminates the
// worker, blocking until it has exited. Reachable from any state.
func (s *Scheduler) Shutdown() {
	if s.state == StateTerminated {
		return
	}
	s.stopTimers()
	s.state = StateTerminated
	s.reporter.ReportInactive()

	if err := s.worker.Terminate(); err != nil {
		log.Printf("sched: terminate worker: %v", err)
	}
	if err := s.worker.Wait(); err != nil {
		log.Printf("sched: wait for worker: %v", err)
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Reason returns why the scheduler is blocked, if it is.
func (s *Scheduler) Reason() BlockReason { return s.reason }

// ThermalSafe returns the last applied thermal state.
func (s *Scheduler) ThermalSafe() bool { return s.thermalSafe }

// UserPaused returns the last applied pause intent.
func (s *Scheduler) UserPaused() bool { return s.userPaused }

// HighCPUMode returns the current intensity mode.
func (s *Scheduler) HighCPUMode() bool { return s.highCPU }
