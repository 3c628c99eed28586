package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	BlockReason   string       `json:"block_reason,omitempty"`
	ThermalSafe   bool         `json:"thermal_safe"`
	Paused        bool         `json:"paused"`
	HighCPU       bool         `json:"high_cpu"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Progress      ProgressJSON `json:"progress"`
	GlobalDonated string       `json:"global_donated,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ProgressJSON is the JSON representation of ledger progress.
type ProgressJSON struct {
	Hearts        int      `json:"hearts"`
	DonatedHearts int      `json:"donated_hearts"`
	NRecruits     int      `json:"n_recruits"`
	Achievements  []string `json:"achievements"`
}

// ConfigJSON is the JSON representation of agent config.
type ConfigJSON struct {
	ResumeSec     int64  `json:"resume_sec"`
	WindowSec     int64  `json:"window_sec"`
	WindowHighSec int64  `json:"window_high_sec"`
	ThermalPollMs int64  `json:"thermal_poll_ms"`
	Broker        string `json:"broker,omitempty"`
	HTTPPort      string `json:"http_port"`
	BaseURL       string `json:"base_url"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	achievements := make([]string, 0, len(snap.Progress.Achievements))
	for _, id := range snap.Progress.Achievements {
		achievements = append(achievements, string(id))
	}

	return StatusInner{
		State:         state,
		BlockReason:   string(snap.BlockReason),
		ThermalSafe:   snap.ThermalSafe,
		Paused:        snap.UserPaused,
		HighCPU:       snap.HighCPU,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Progress: ProgressJSON{
			Hearts:        snap.Progress.Points,
			DonatedHearts: snap.Progress.DonatedTotal,
			NRecruits:     snap.Progress.RecruitCount,
			Achievements:  achievements,
		},
		GlobalDonated: snap.GlobalDonated,
		Config: ConfigJSON{
			ResumeSec:     snap.Config.ResumeSec,
			WindowSec:     snap.Config.WindowSec,
			WindowHighSec: snap.Config.WindowHighSec,
			ThermalPollMs: snap.Config.ThermalPollMs,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
			BaseURL:       snap.Config.BaseURL,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
