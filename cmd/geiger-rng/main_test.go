package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/geiger-rng/internal/config"
	"github.com/sweeney/geiger-rng/internal/entropy"
	"github.com/sweeney/geiger-rng/internal/mqtt"
	"github.com/sweeney/geiger-rng/internal/pulse"
	"github.com/sweeney/geiger-rng/internal/status"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// pulsesFor returns timestamps whose windows yield the given bits in order:
// a gap shrinking by 1ms gives 1, growing gives 0.
func pulsesFor(bits ...entropy.Bit) []time.Time {
	gap := time.Second
	ts := []time.Time{t0, t0.Add(gap)}
	for _, b := range bits {
		if b == entropy.One {
			gap -= time.Millisecond
		} else {
			gap += time.Millisecond
		}
		ts = append(ts, ts[len(ts)-1].Add(gap))
	}
	return ts
}

// fakeClock returns start, start+step, ... on successive calls.
// Only called from runLoop's goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type fakeCounts struct {
	calls []entropy.Counts
}

func (f *fakeCounts) WriteCounts(c entropy.Counts, _ time.Time) {
	f.calls = append(f.calls, c)
}

type loopHarness struct {
	ext     *entropy.Extractor
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	counts  *fakeCounts
	sinks   []sink
	out     *bytes.Buffer

	pulses chan time.Time
	tick   chan time.Time
	sig    chan os.Signal
	errCh  chan error
}

func newHarness(t *testing.T, width int) *loopHarness {
	t.Helper()
	ext, err := entropy.NewExtractor(width)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	out := &bytes.Buffer{}
	pub := mqtt.NewFakePublisher()
	return &loopHarness{
		ext:     ext,
		pub:     pub,
		tracker: status.NewTracker(t0, status.Config{Width: width, Source: "synthetic"}),
		counts:  &fakeCounts{},
		sinks:   []sink{printSink(out), {name: "mqtt", write: pub.Publish}},
		out:     out,
		pulses:  make(chan time.Time),
		tick:    make(chan time.Time),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}
}

func (h *loopHarness) start() {
	go func() {
		h.errCh <- runLoop(h.ext, h.pulses, h.sinks, h.pub, h.pub, h.tracker, h.counts,
			fakeClock(t0, time.Second), h.tick, h.sig)
	}()
}

// feed sends pulses one at a time; each send returns once the loop has taken it.
func (h *loopHarness) feed(ts []time.Time) {
	for _, p := range ts {
		h.pulses <- p
	}
}

func (h *loopHarness) stop(t *testing.T, s os.Signal) {
	t.Helper()
	h.sig <- s
	if err := <-h.errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func (h *loopHarness) finish(t *testing.T) {
	t.Helper()
	close(h.pulses)
	if err := <-h.errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func systemEvents(pub *mqtt.FakePublisher, name string) []mqtt.SystemEvent {
	var out []mqtt.SystemEvent
	for _, se := range pub.SystemEvents {
		if se.Event == name {
			out = append(out, se)
		}
	}
	return out
}

func TestRunLoopPublishesCompletedValue(t *testing.T) {
	h := newHarness(t, 4)
	h.start()
	h.feed(pulsesFor(entropy.Zero, entropy.One, entropy.One, entropy.Zero))
	h.finish(t)

	if len(h.pub.Values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(h.pub.Values))
	}
	v := h.pub.Values[0]
	if v.Number != 6 {
		t.Errorf("Number = %d, want 6", v.Number)
	}
	if v.Width != 4 {
		t.Errorf("Width = %d, want 4", v.Width)
	}
	if got := h.out.String(); got != "6\n" {
		t.Errorf("stdout = %q, want %q", got, "6\n")
	}
}

func TestRunLoopNoValueBeforeFull(t *testing.T) {
	h := newHarness(t, 8)
	h.start()
	h.feed(pulsesFor(entropy.One, entropy.One, entropy.One))
	h.finish(t)

	if len(h.pub.Values) != 0 {
		t.Errorf("expected no values, got %d", len(h.pub.Values))
	}
	if h.out.Len() != 0 {
		t.Errorf("expected no stdout output, got %q", h.out.String())
	}
	snap := h.tracker.Snapshot()
	if snap.BitCount != 3 {
		t.Errorf("BitCount = %d, want 3", snap.BitCount)
	}
}

func TestRunLoopMultipleValues(t *testing.T) {
	h := newHarness(t, 2)
	h.start()
	// 1,0 → 2; 1,1 → 3; 0,1 → 1
	h.feed(pulsesFor(entropy.One, entropy.Zero, entropy.One, entropy.One, entropy.Zero, entropy.One))
	h.finish(t)

	want := []uint64{2, 3, 1}
	if len(h.pub.Values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(h.pub.Values))
	}
	for i, w := range want {
		if h.pub.Values[i].Number != w {
			t.Errorf("value %d = %d, want %d", i, h.pub.Values[i].Number, w)
		}
	}
	if got := h.out.String(); got != "2\n3\n1\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	h := newHarness(t, 4)
	h.start()
	ts := pulsesFor(entropy.One, entropy.Zero, entropy.One, entropy.Zero, entropy.One)
	h.feed(ts)
	h.finish(t)

	snap := h.tracker.Snapshot()
	if snap.Counts.Pulses != uint64(len(ts)) {
		t.Errorf("Pulses = %d, want %d", snap.Counts.Pulses, len(ts))
	}
	if snap.Counts.Bits != 5 {
		t.Errorf("Bits = %d, want 5", snap.Counts.Bits)
	}
	if !snap.HasLast || snap.Last.Number != 10 {
		t.Errorf("Last = %+v (HasLast=%v), want 10", snap.Last, snap.HasLast)
	}
	if snap.BitCount != 1 {
		t.Errorf("BitCount = %d, want 1", snap.BitCount)
	}
}

func TestRunLoopSourceDone(t *testing.T) {
	h := newHarness(t, 8)
	h.start()
	h.finish(t)

	shutdowns := systemEvents(h.pub, "SHUTDOWN")
	if len(shutdowns) != 1 {
		t.Fatalf("expected 1 SHUTDOWN event, got %d", len(shutdowns))
	}
	se := shutdowns[0]
	if se.Reason != "SOURCE_DONE" {
		t.Errorf("Reason = %q, want SOURCE_DONE", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSignals(t *testing.T) {
	tests := []struct {
		signal os.Signal
		reason string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			h := newHarness(t, 8)
			h.start()
			h.feed(pulsesFor(entropy.One, entropy.Zero))
			h.stop(t, tt.signal)

			if len(h.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
			}
			se := h.pub.SystemEvents[0]
			if se.Event != "SHUTDOWN" {
				t.Errorf("Event = %q, want SHUTDOWN", se.Event)
			}
			if se.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", se.Reason, tt.reason)
			}
			if !strings.Contains(string(se.RawPayload), `"reason":"`+tt.reason+`"`) {
				t.Errorf("payload missing reason: %s", se.RawPayload)
			}
		})
	}
}

func TestRunLoopSinkErrors(t *testing.T) {
	h := newHarness(t, 2)
	h.pub.PublishError = errors.New("broker unavailable")
	var recorded []uint64
	h.sinks = append([]sink{{name: "broken", write: func(entropy.Value) error {
		return errors.New("disk full")
	}}}, h.sinks...)
	h.sinks = append(h.sinks, sink{name: "record", write: func(v entropy.Value) error {
		recorded = append(recorded, v.Number)
		return nil
	}})

	h.start()
	h.feed(pulsesFor(entropy.One, entropy.One, entropy.Zero, entropy.Zero))
	h.stop(t, syscall.SIGTERM)

	if len(recorded) != 2 || recorded[0] != 3 || recorded[1] != 0 {
		t.Errorf("recorded = %v, want [3 0]", recorded)
	}
	if got := h.out.String(); got != "3\n0\n" {
		t.Errorf("stdout = %q", got)
	}
	if len(systemEvents(h.pub, "SHUTDOWN")) != 1 {
		t.Error("expected SHUTDOWN system event despite sink errors")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	h := newHarness(t, 8)
	h.pub.Connected = true
	h.start()
	h.feed(pulsesFor(entropy.One, entropy.Zero, entropy.One))
	h.tick <- time.Time{}
	h.stop(t, syscall.SIGTERM)

	heartbeats := systemEvents(h.pub, "HEARTBEAT")
	if len(heartbeats) != 1 {
		t.Fatalf("expected 1 HEARTBEAT event, got %d", len(heartbeats))
	}
	hb := heartbeats[0]
	if hb.Retained {
		t.Error("HEARTBEAT should not be retained")
	}
	payload := string(hb.RawPayload)
	for _, want := range []string{`"event":"HEARTBEAT"`, `"pulses":5`, `"bit_count":3`, `"connected":true`} {
		if !strings.Contains(payload, want) {
			t.Errorf("heartbeat payload missing %s: %s", want, payload)
		}
	}

	if len(h.counts.calls) != 1 {
		t.Fatalf("expected 1 WriteCounts call, got %d", len(h.counts.calls))
	}
	if h.counts.calls[0].Pulses != 5 {
		t.Errorf("WriteCounts pulses = %d, want 5", h.counts.calls[0].Pulses)
	}
	if !h.tracker.Snapshot().MQTTConnected {
		t.Error("tracker should report MQTT connected")
	}
}

func TestRunLoopWithoutPublisher(t *testing.T) {
	ext, _ := entropy.NewExtractor(2)
	out := &bytes.Buffer{}
	pulses := make(chan time.Time, 16)
	for _, p := range pulsesFor(entropy.One, entropy.Zero) {
		pulses <- p
	}
	close(pulses)

	tick := make(chan time.Time)
	err := runLoop(ext, pulses, []sink{printSink(out)}, nil, nil,
		status.NewTracker(t0, status.Config{}), nil, time.Now, tick, make(chan os.Signal))
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if out.String() != "2\n" {
		t.Errorf("stdout = %q, want %q", out.String(), "2\n")
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()
	src, err := newSource(cfg)
	if err != nil {
		t.Fatalf("synthetic: unexpected error: %v", err)
	}
	if _, ok := src.(*pulse.SyntheticSource); !ok {
		t.Errorf("synthetic: got %T", src)
	}

	cfg.Source.Kind = "serial"
	cfg.Source.Serial.Port = "/dev/ttyUSB0"
	src, err = newSource(cfg)
	if err != nil {
		t.Fatalf("serial: unexpected error: %v", err)
	}
	if _, ok := src.(*pulse.SerialSource); !ok {
		t.Errorf("serial: got %T", src)
	}

	cfg.Source.Serial.Mode = "ascii"
	if _, err := newSource(cfg); err == nil {
		t.Error("serial: expected error for bad mode")
	}

	cfg.Source.Kind = "usb"
	if _, err := newSource(cfg); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRunSyntheticDemo(t *testing.T) {
	cfg := config.Default()
	cfg.Heartbeat = 0
	cfg.Source.Synthetic.MaxGap = time.Microsecond
	cfg.Source.Synthetic.Pulses = 50
	cfg.Source.Synthetic.Seed = 1

	out := &bytes.Buffer{}
	if err := run(cfg, out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	// 50 pulses → 48 bits → 6 bytes
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 values, got %d: %q", len(lines), out.String())
	}
}

func TestProfiledFlushesOnError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("source failed")

	err := profiled(dir, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	info, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
	if err != nil {
		t.Fatalf("cpu profile missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("cpu profile is empty")
	}
}

func TestProfiledDisabled(t *testing.T) {
	called := false
	if err := profiled("", func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("fn not called")
	}
}
