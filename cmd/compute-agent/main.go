// Command compute-agent duty-cycles a background compute worker, tracks
// earned hearts, and reports liveness to the Compute for Humanity
// aggregator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/computeforhumanity/compute-agent/internal/achieve"
	"github.com/computeforhumanity/compute-agent/internal/gpio"
	"github.com/computeforhumanity/compute-agent/internal/heartbeat"
	"github.com/computeforhumanity/compute-agent/internal/ledger"
	"github.com/computeforhumanity/compute-agent/internal/mqtt"
	"github.com/computeforhumanity/compute-agent/internal/notify"
	"github.com/computeforhumanity/compute-agent/internal/sched"
	"github.com/computeforhumanity/compute-agent/internal/status"
	"github.com/computeforhumanity/compute-agent/internal/store"
	"github.com/computeforhumanity/compute-agent/internal/thermal"
	"github.com/computeforhumanity/compute-agent/internal/web"
	"github.com/computeforhumanity/compute-agent/internal/worker"
)

type options struct {
	resumeInterval time.Duration
	window         time.Duration
	windowHigh     time.Duration
	heartRate      int
	heartRateHigh  int

	thermalPoll  time.Duration
	thermalLimit int
	pausePin     int
	pausePoll    time.Duration

	dataPath     string
	persistDelay time.Duration
	baseURL      string

	workerPath string
	pool       string
	poolUser   string
	poolPass   string
	threads    int
	retryPause int

	broker     string
	httpAddr   string
	printState bool
}

func main() {
	var o options
	flag.DurationVar(&o.resumeInterval, "resume-interval", 180*time.Second, "Period between active windows")
	flag.DurationVar(&o.window, "window", 20*time.Second, "Active window duration")
	flag.DurationVar(&o.windowHigh, "window-high", 60*time.Second, "Active window duration in high CPU mode")
	flag.IntVar(&o.heartRate, "heart-rate", 1, "Hearts earned per active window")
	flag.IntVar(&o.heartRateHigh, "heart-rate-high", 3, "Hearts earned per active window in high CPU mode")
	flag.DurationVar(&o.thermalPoll, "thermal-poll", 5*time.Second, "Thermal polling interval")
	flag.IntVar(&o.thermalLimit, "thermal-limit", thermal.DefaultLimitMillideg, "Thermal limit in millidegrees C")
	flag.IntVar(&o.pausePin, "pause-pin", -1, "BCM pin number for physical pause switch (-1 disables)")
	flag.DurationVar(&o.pausePoll, "pause-poll", 250*time.Millisecond, "Pause switch polling interval")
	flag.StringVar(&o.dataPath, "data", "", "Progress file path (empty for the per-user default)")
	flag.DurationVar(&o.persistDelay, "persist-delay", ledger.DefaultPersistDelay, "Debounce delay before saving progress")
	flag.StringVar(&o.baseURL, "base-url", heartbeat.DefaultBaseURL, "Aggregator API base URL")
	flag.StringVar(&o.workerPath, "worker", "/usr/local/bin/minerd", "Worker binary path")
	flag.StringVar(&o.pool, "pool", "stratum+tcp://pool.computeforhumanity.org:3333", "Worker pool URL")
	flag.StringVar(&o.poolUser, "pool-user", "cfh", "Worker pool username")
	flag.StringVar(&o.poolPass, "pool-pass", "x", "Worker pool password")
	flag.IntVar(&o.threads, "threads", 1, "Worker thread count")
	flag.IntVar(&o.retryPause, "retry-pause", 5, "Worker retry pause in seconds")
	flag.StringVar(&o.broker, "broker", "off", `MQTT broker address ("off" disables)`)
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print saved progress and exit")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	path := o.dataPath
	if path == "" {
		path = store.DefaultPath()
	}
	st, err := store.NewFileStore(path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if o.printState {
		return printSavedState(st)
	}

	// MQTT is optional; nil publisher disables telemetry.
	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if o.broker != "off" && o.broker != "" {
		real, err := mqtt.NewRealPublisher(o.broker)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		publisher = real
		connStatus = real
		defer publisher.Close()
	}

	// The control loop: every timer fire, HTTP completion, and control
	// request is marshaled onto this channel.
	calls := make(chan func(), 64)
	post := func(f func()) { calls <- f }

	var sink notify.Sink = notify.LogSink{}
	if publisher != nil {
		sink = &mqttSink{pub: publisher}
	}
	dispatcher := notify.NewDispatcher(sink, notify.DefaultInterval)

	led := ledger.New(st, dispatcher, ledger.Options{PersistDelay: o.persistDelay})

	tracker := status.NewTracker(time.Now(), status.Config{
		ResumeSec:     int64(o.resumeInterval.Seconds()),
		WindowSec:     int64(o.window.Seconds()),
		WindowHighSec: int64(o.windowHigh.Seconds()),
		ThermalPollMs: o.thermalPoll.Milliseconds(),
		Broker:        brokerForDisplay(o.broker),
		HTTPPort:      o.httpAddr,
		BaseURL:       o.baseURL,
	})

	client := heartbeat.NewClient(o.baseURL, led.UUID(), post, func(u heartbeat.Update) {
		tracker.SetGlobalDonated(u.Donated)
		if u.HasRecruits {
			led.SetRecruitCount(u.Recruits)
		}
	})

	proc := worker.NewRealProcess(worker.Config{
		Path:              o.workerPath,
		PoolURL:           o.pool,
		User:              o.poolUser,
		Pass:              o.poolPass,
		Threads:           o.threads,
		RetryPauseSeconds: o.retryPause,
	})

	s := sched.New(sched.Config{
		ResumeInterval:  o.resumeInterval,
		WindowNormal:    o.window,
		WindowHigh:      o.windowHigh,
		HeartRateNormal: o.heartRate,
		HeartRateHigh:   o.heartRateHigh,
	}, proc, led, client, post)
	s.SetHighCPUMode(led.HighCPUMode())
	if err := s.Start(); err != nil {
		return err
	}

	thermalReader, err := thermal.NewRealReader(o.thermalLimit)
	if err != nil {
		return fmt.Errorf("init thermal: %w", err)
	}
	defer thermalReader.Close()

	var pauseReader gpio.Reader
	if o.pausePin >= 0 {
		pauseReader, err = gpio.NewRealReader(o.pausePin)
		if err != nil {
			return fmt.Errorf("init pause switch: %w", err)
		}
		defer pauseReader.Close()
	}

	// Apply the first thermal reading before the loop so the agent does
	// not sit blocked for a full poll interval.
	if safe, err := thermalReader.Read(); err != nil {
		log.Printf("thermal read: %v", err)
	} else {
		s.SetThermalSafe(safe)
	}
	if s.State() == sched.StateBlocked {
		// Count the install even while we cannot run.
		client.ReportActive(false)
	}
	syncTracker(tracker, s, led, connStatus)

	if publisher != nil {
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		}
	}

	if o.httpAddr != "" {
		controls := &agentControls{post: post, s: s, led: led, reporter: client}
		srv := web.New(o.httpAddr, tracker, controls)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", o.httpAddr)
	}

	log.Printf("started: resume=%v window=%v/%v broker=%s uuid=%s",
		o.resumeInterval, o.window, o.windowHigh, o.broker, led.UUID())

	thermalTicker := time.NewTicker(o.thermalPoll)
	defer thermalTicker.Stop()

	var pauseTick <-chan time.Time
	if pauseReader != nil {
		pauseTicker := time.NewTicker(o.pausePoll)
		defer pauseTicker.Stop()
		pauseTick = pauseTicker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(s, led, tracker, publisher, connStatus, thermalReader, pauseReader,
		calls, thermalTicker.C, pauseTick, time.Now, sigCh)

	// Flush progress before the worker goes away, then stop scheduling.
	led.Close()
	s.Shutdown()
	return err
}

func runLoop(
	s *sched.Scheduler,
	led *ledger.Ledger,
	tracker *status.Tracker,
	publisher mqtt.Publisher,
	connStatus mqtt.ConnectionStatus,
	thermalReader thermal.Reader,
	pauseReader gpio.Reader,
	calls <-chan func(),
	thermalTick <-chan time.Time,
	pauseTick <-chan time.Time,
	now func() time.Time,
	sig <-chan os.Signal,
) error {
	for {
		select {
		case sg := <-sig:
			log.Printf("received %v, shutting down", sg)
			signalName := "UNKNOWN"
			if sg == syscall.SIGINT {
				signalName = "SIGINT"
			} else if sg == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				syncTracker(tracker, s, led, connStatus)
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				}
			}
			return nil

		case f := <-calls:
			f()

		case <-thermalTick:
			safe, err := thermalReader.Read()
			if err != nil {
				// Fail safe: an unreadable sensor blocks scheduling.
				log.Printf("thermal read: %v", err)
				safe = false
			}
			s.SetThermalSafe(safe)

		case <-pauseTick:
			paused, err := pauseReader.Read()
			if err != nil {
				log.Printf("pause switch read: %v", err)
				continue
			}
			s.SetUserPaused(paused)
		}

		syncTracker(tracker, s, led, connStatus)
	}
}

// syncTracker refreshes the status tracker from the scheduler and ledger.
// Called from the control loop after every event.
func syncTracker(tracker *status.Tracker, s *sched.Scheduler, led *ledger.Ledger, connStatus mqtt.ConnectionStatus) {
	tracker.UpdateScheduler(s.State(), s.Reason(), s.ThermalSafe(), s.UserPaused(), s.HighCPUMode())

	raw := led.Achievements()
	ids := make([]achieve.ID, 0, len(raw))
	for _, a := range raw {
		ids = append(ids, achieve.ID(a))
	}
	tracker.UpdateProgress(status.Progress{
		Points:       led.Points(),
		DonatedTotal: led.DonatedTotal(),
		RecruitCount: led.RecruitCount(),
		Achievements: ids,
	})

	if connStatus != nil {
		tracker.SetMQTTConnected(connStatus.IsConnected())
	}
}

// agentControls bridges HTTP control handlers onto the control loop.
type agentControls struct {
	post     func(func())
	s        *sched.Scheduler
	led      *ledger.Ledger
	reporter heartbeat.Reporter
}

func (c *agentControls) SetPaused(paused bool) {
	c.post(func() { c.s.SetUserPaused(paused) })
}

func (c *agentControls) SetHighCPUMode(on bool) {
	c.post(func() {
		c.led.SetHighCPUMode(on)
		c.s.SetHighCPUMode(on)
	})
}

// Donate runs the donation on the control loop and waits for the result
// so the handler can report balance errors.
func (c *agentControls) Donate(charityID string, amount int) error {
	errCh := make(chan error, 1)
	c.post(func() {
		err := c.led.Donate(amount)
		if err == nil {
			c.reporter.SubmitDonation(charityID, amount)
		}
		errCh <- err
	})
	return <-errCh
}

// mqttSink delivers notifications to the broker as well as the log.
type mqttSink struct {
	pub mqtt.Publisher
}

func (s *mqttSink) Deliver(title, subtitle string) error {
	log.Printf("notification: %s / %s", title, subtitle)
	return s.pub.PublishNotification(mqtt.Notification{
		Timestamp: time.Now(),
		Title:     title,
		Subtitle:  subtitle,
	})
}

func printSavedState(st store.Store) error {
	rec, exists, err := st.Load()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if !exists {
		fmt.Println("no saved progress")
		return nil
	}
	fmt.Printf("uuid: %s\n", rec.UUID)
	fmt.Printf("hearts: %d\n", rec.Points)
	fmt.Printf("donated: %d\n", rec.DonatedTotal)
	fmt.Printf("recruits: %d\n", rec.RecruitCount)
	fmt.Printf("high cpu: %v\n", rec.HighCPUMode)
	if len(rec.Achievements) > 0 {
		fmt.Printf("achievements: %v\n", rec.Achievements)
	}
	return nil
}

func brokerForDisplay(broker string) string {
	if broker == "off" {
		return ""
	}
	return broker
}
