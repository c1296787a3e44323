package main

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/geiger-rng/internal/entropy"
	"github.com/sweeney/geiger-rng/internal/mqtt"
	"github.com/sweeney/geiger-rng/internal/status"
)

// sink receives every completed value. Errors are logged and never stop the loop.
type sink struct {
	name  string
	write func(entropy.Value) error
}

func printSink(w io.Writer) sink {
	return sink{name: "stdout", write: func(v entropy.Value) error {
		_, err := fmt.Fprintln(w, v.Number)
		return err
	}}
}

// countsWriter records extractor totals on each heartbeat.
type countsWriter interface {
	WriteCounts(c entropy.Counts, ts time.Time)
}

// runLoop is the only goroutine touching the extractor. It returns when a
// signal arrives or the pulses channel is closed.
func runLoop(ext *entropy.Extractor, pulses <-chan time.Time, sinks []sink, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, counts countsWriter, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	shutdown := func(reason string) {
		refreshMQTT(tracker, mqttStatus)
		snap := tracker.Snapshot()
		log.Info().
			Str("reason", reason).
			Uint64("pulses", snap.Counts.Pulses).
			Uint64("values", snap.Counts.Values).
			Msg("shutting down")
		publishSystem(publisher, mqtt.SystemEvent{
			Timestamp:  now(),
			Event:      "SHUTDOWN",
			Reason:     reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
		})
	}

	for {
		select {
		case s := <-sig:
			shutdown(signalName(s))
			return nil

		case ts, ok := <-pulses:
			if !ok {
				shutdown("SOURCE_DONE")
				return nil
			}
			v, done := ext.NotifyPulse(ts)
			if done {
				tracker.SetLast(v)
				for _, s := range sinks {
					if err := s.write(v); err != nil {
						log.Warn().Err(err).Str("sink", s.name).Msg("sink write failed")
					}
				}
			}
			tracker.Update(ext.Counts(), ext.BitCount())

		case <-tick:
			t := now()
			c := ext.Counts()
			log.Info().
				Uint64("pulses", c.Pulses).
				Uint64("bits", c.Bits).
				Uint64("values", c.Values).
				Msg("heartbeat")
			if counts != nil {
				counts.WriteCounts(c, t)
			}
			refreshMQTT(tracker, mqttStatus)
			snap := tracker.Snapshot()
			publishSystem(publisher, mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			})
		}
	}
}

func refreshMQTT(tracker *status.Tracker, mqttStatus mqtt.ConnectionStatus) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// publishSystem is a no-op without a publisher.
func publishSystem(publisher mqtt.Publisher, event mqtt.SystemEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Warn().Err(err).Str("event", event.Event).Msg("failed to publish system event")
		return
	}
	log.Debug().Str("event", event.Event).Msg("published system event")
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
