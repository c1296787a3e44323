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
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Ready         bool       `json:"ready"`
	Width         int        `json:"width"`
	BitCount      int        `json:"bit_count"`
	Counts        CountsJSON `json:"counts"`
	PulseRate     float64    `json:"pulse_rate"`
	OnesRatio     float64    `json:"ones_ratio"`
	Last          *LastJSON  `json:"last_value,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// CountsJSON is the JSON representation of extractor totals.
type CountsJSON struct {
	Pulses uint64 `json:"pulses"`
	Bits   uint64 `json:"bits"`
	Ones   uint64 `json:"ones"`
	Values uint64 `json:"values"`
}

// LastJSON is the most recently completed value.
type LastJSON struct {
	Timestamp string `json:"timestamp"`
	Number    uint64 `json:"number"`
	Bits      string `json:"bits"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Width       int    `json:"width"`
	Source      string `json:"source"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	RecordDir   string `json:"record_dir,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:    snap.Ready(),
		Width:    snap.Config.Width,
		BitCount: snap.BitCount,
		Counts: CountsJSON{
			Pulses: snap.Counts.Pulses,
			Bits:   snap.Counts.Bits,
			Ones:   snap.Counts.Ones,
			Values: snap.Counts.Values,
		},
		PulseRate:     snap.PulseRate(),
		OnesRatio:     snap.OnesRatio(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Width:       snap.Config.Width,
			Source:      snap.Config.Source,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			HeartbeatMs: snap.Config.HeartbeatMs,
			RecordDir:   snap.Config.RecordDir,
		},
	}
	if snap.HasLast {
		inner.Last = &LastJSON{
			Timestamp: snap.Last.Timestamp.UTC().Format(time.RFC3339Nano),
			Number:    snap.Last.Number,
			Bits:      snap.Last.Bits(),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
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
