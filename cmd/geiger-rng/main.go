// Command geiger-rng turns Geiger counter pulses into random integers and
// publishes them to stdout, MQTT, recording files and InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/geiger-rng/internal/config"
	"github.com/sweeney/geiger-rng/internal/entropy"
	"github.com/sweeney/geiger-rng/internal/metrics"
	"github.com/sweeney/geiger-rng/internal/mqtt"
	"github.com/sweeney/geiger-rng/internal/record"
	"github.com/sweeney/geiger-rng/internal/status"
	"github.com/sweeney/geiger-rng/internal/web"
)

// pulseBuffer absorbs bursts while a slow sink holds up the run loop.
const pulseBuffer = 1024

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configFile := flag.String("config", "", "YAML config file (defaults apply when empty)")
	source := flag.String("source", "", "Pulse source: gpio, serial or synthetic")
	width := flag.Int("width", entropy.DefaultWidth, "Bits per value (1..64)")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	httpAddr := flag.String("http", "", "HTTP status address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", time.Minute, "Heartbeat interval (0 to disable)")
	printValues := flag.Bool("print-values", true, "Print each value to stdout")
	pulses := flag.Int("pulses", 0, "Synthetic pulse count (0 runs until stopped)")
	recordDir := flag.String("record", "", "Directory for .bin/.csv recordings (empty to disable)")
	profileDir := flag.String("profile", "", "Write a CPU profile to this directory")

	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatal().Err(err).Msg("error loading config")
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source.Kind = *source
		case "width":
			cfg.Width = *width
		case "broker":
			cfg.MQTT.Broker = *broker
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "print-values":
			cfg.PrintValues = *printValues
		case "pulses":
			cfg.Source.Synthetic.Pulses = *pulses
		case "record":
			cfg.Record.Dir = *recordDir
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	// log.Fatal exits without running defers, so the profile is stopped first.
	err := profiled(*profileDir, func() error { return run(cfg, os.Stdout) })
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// profiled runs fn under a CPU profile written to dir. An empty dir disables profiling.
// The profile is flushed before returning, including when fn fails.
func profiled(dir string, fn func() error) error {
	if dir == "" {
		return fn()
	}
	p := profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	defer p.Stop()
	return fn()
}

func run(cfg config.Config, stdout io.Writer) error {
	ext, err := entropy.NewExtractor(cfg.Width)
	if err != nil {
		return fmt.Errorf("init extractor: %w", err)
	}

	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer src.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		Width:       cfg.Width,
		Source:      cfg.Source.Kind,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		RecordDir:   cfg.Record.Dir,
	})

	var sinks []sink
	if cfg.PrintValues {
		sinks = append(sinks, printSink(stdout))
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		tracker.SetMQTTConnected(p.IsConnected())
		sinks = append(sinks, sink{name: "mqtt", write: p.Publish})
	}

	if cfg.Record.Dir != "" {
		rec, err := record.Create(cfg.Record.Dir, time.Now(), cfg.Source.Kind, cfg.Width)
		if err != nil {
			return fmt.Errorf("init recorder: %w", err)
		}
		defer rec.Close()
		log.Info().Str("bin", rec.BinPath).Str("csv", rec.CSVPath).Msg("recording values")
		sinks = append(sinks, sink{name: "record", write: rec.Write})
	}

	var counts countsWriter
	if cfg.InfluxDB.Host != "" {
		client := metrics.Dial(cfg.InfluxDB.Host, cfg.InfluxDB.Token, cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
		defer client.Close()
		ms := metrics.NewSink(client, cfg.Source.Kind, cfg.Width)
		counts = ms
		sinks = append(sinks, sink{name: "influxdb", write: ms.Write})
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	publishSystem(publisher, mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	var tick <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.Info().
		Str("source", cfg.Source.Kind).
		Int("width", cfg.Width).
		Str("broker", cfg.MQTT.Broker).
		Dur("heartbeat", cfg.Heartbeat).
		Int("sinks", len(sinks)).
		Msg("started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	pulses := make(chan time.Time, pulseBuffer)
	src.Subscribe(func(ts time.Time) {
		select {
		case pulses <- ts:
		case <-gctx.Done():
		}
	})

	g.Go(func() error {
		defer close(pulses)
		if err := src.Run(gctx); err != nil {
			return fmt.Errorf("pulse source: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return runLoop(ext, pulses, sinks, publisher, mqttStatus, tracker, counts, time.Now, tick, sigCh)
	})

	return g.Wait()
}
