// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

// Topic is the MQTT topic for assembled random values.
const Topic = "sensor/geiger/rng/values"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensor/geiger/rng/system"

// DefaultClientID identifies the daemon to the broker.
const DefaultClientID = "geiger-rng"

// Publisher publishes values to MQTT.
type Publisher interface {
	// Publish sends an assembled value to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(v entropy.Value) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SOURCE_DONE" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the MQTT message for one value.
type Payload struct {
	Value ValuePayload `json:"value"`
}

// ValuePayload contains the value details.
type ValuePayload struct {
	Timestamp string `json:"timestamp"`
	Width     int    `json:"width"`
	Number    uint64 `json:"number"`
	Bits      string `json:"bits"`
}

// FormatPayload creates the JSON payload for a value.
// Pulses arrive microseconds apart, so the timestamp keeps sub-second precision.
func FormatPayload(v entropy.Value) ([]byte, error) {
	payload := Payload{
		Value: ValuePayload{
			Timestamp: v.Timestamp.UTC().Format(time.RFC3339Nano),
			Width:     v.Width,
			Number:    v.Number,
			Bits:      v.Bits(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message for events without a status snapshot (LWT).
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
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
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
