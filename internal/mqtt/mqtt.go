// Package mqtt publishes agent telemetry with abstraction for testing:
// delivered notifications and system lifecycle events, for desktop
// integrations and dashboards that subscribe to the broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicNotifications is the MQTT topic for delivered user notifications.
const TopicNotifications = "compute/agent/notifications"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "compute/agent/system"

// Publisher publishes agent events to MQTT.
type Publisher interface {
	// PublishNotification sends a delivered notification to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishNotification(n Notification) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Notification is a user-visible notification that was delivered.
type Notification struct {
	Timestamp time.Time
	Title     string
	Subtitle  string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// NotificationPayload is the MQTT message payload for notifications.
type NotificationPayload struct {
	Notification NotificationInner `json:"notification"`
}

// NotificationInner contains the notification details.
type NotificationInner struct {
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
}

// FormatNotificationPayload creates the JSON payload for a notification.
func FormatNotificationPayload(n Notification) ([]byte, error) {
	payload := NotificationPayload{
		Notification: NotificationInner{
			Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
			Title:     n.Title,
			Subtitle:  n.Subtitle,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for simple system events
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
