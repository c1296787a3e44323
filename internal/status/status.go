// Package status provides a thread-safe status tracker for the geiger-rng daemon.
// It is read by HTTP handlers and used to build MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

// Config contains daemon configuration for display.
type Config struct {
	Width       int
	Source      string
	Broker      string
	HTTPAddr    string
	HeartbeatMs int64
	RecordDir   string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts        entropy.Counts
	BitCount      int // bits in the value currently being assembled
	Last          entropy.Value
	HasLast       bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether the pulse window has filled and bits are flowing.
func (s Snapshot) Ready() bool {
	return s.Counts.Bits > 0
}

// PulseRate returns the mean pulses per second since startup.
func (s Snapshot) PulseRate() float64 {
	secs := s.Uptime().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Counts.Pulses) / secs
}

// OnesRatio returns the fraction of derived bits that were one, or 0 before any bit.
func (s Snapshot) OnesRatio() float64 {
	if s.Counts.Bits == 0 {
		return 0
	}
	return float64(s.Counts.Ones) / float64(s.Counts.Bits)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets extractor totals and the fill of the current value.
// Called from the run loop after every pulse.
func (t *Tracker) Update(counts entropy.Counts, bitCount int) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.snap.BitCount = bitCount
	t.mu.Unlock()
}

// SetLast records the most recently completed value.
func (t *Tracker) SetLast(v entropy.Value) {
	t.mu.Lock()
	t.snap.Last = v
	t.snap.HasLast = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
