// Package config loads the geiger-rng YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/sweeney/geiger-rng/internal/entropy"
	"github.com/sweeney/geiger-rng/internal/mqtt"
	"github.com/sweeney/geiger-rng/internal/pulse"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Width       int           `yaml:"width"`
	LogLevel    string        `yaml:"log_level"`
	Heartbeat   time.Duration `yaml:"heartbeat"` // 0 disables
	PrintValues bool          `yaml:"print_values"`

	Source   SourceConfig   `yaml:"source"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Record   RecordConfig   `yaml:"record"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

type SourceConfig struct {
	Kind      string          `yaml:"kind"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Serial    SerialConfig    `yaml:"serial"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

type GPIOConfig struct {
	Chip     string        `yaml:"chip"`
	Line     int           `yaml:"line"`
	Edge     string        `yaml:"edge"`
	Debounce time.Duration `yaml:"debounce"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	Mode string `yaml:"mode"`
}

type SyntheticConfig struct {
	MaxGap time.Duration `yaml:"max_gap"`
	Pulses int           `yaml:"pulses"` // <= 0 runs until stopped
	Seed   int64         `yaml:"seed"`   // 0 seeds from the clock
}

// MQTTConfig: an empty broker disables publishing.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// HTTPConfig: an empty addr disables the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RecordConfig: an empty dir disables recording.
type RecordConfig struct {
	Dir string `yaml:"dir"`
}

// InfluxDBConfig: an empty host disables metrics.
type InfluxDBConfig struct {
	Host         string `yaml:"host"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// Default returns the demo configuration: a synthetic source printing 8-bit
// values to stdout, with every network sink disabled.
func Default() Config {
	return Config{
		Width:       entropy.DefaultWidth,
		LogLevel:    "info",
		Heartbeat:   60 * time.Second,
		PrintValues: true,
		Source: SourceConfig{
			Kind: string(pulse.KindSynthetic),
			GPIO: GPIOConfig{
				Chip: pulse.DefaultChip,
				Line: pulse.DefaultLine,
				Edge: string(pulse.EdgeFalling),
			},
			Serial: SerialConfig{
				Baud: 9600,
				Mode: string(pulse.SerialClick),
			},
			Synthetic: SyntheticConfig{
				MaxGap: pulse.DefaultMaxGap,
				Pulses: pulse.DefaultSyntheticPulses,
			},
		},
		MQTT: MQTTConfig{ClientID: mqtt.DefaultClientID},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Width < 1 || c.Width > entropy.MaxWidth {
		return fmt.Errorf("%w: width must be 1..%d, got %d", ErrInvalid, entropy.MaxWidth, c.Width)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat must not be negative", ErrInvalid)
	}

	switch pulse.Kind(c.Source.Kind) {
	case pulse.KindSynthetic:
		if c.Source.Synthetic.MaxGap <= 0 {
			return fmt.Errorf("%w: synthetic.max_gap must be > 0", ErrInvalid)
		}
	case pulse.KindGPIO:
		if c.Source.GPIO.Chip == "" {
			return fmt.Errorf("%w: gpio.chip is required", ErrInvalid)
		}
		if c.Source.GPIO.Line < 0 {
			return fmt.Errorf("%w: gpio.line must not be negative", ErrInvalid)
		}
		if _, err := pulse.ParseEdge(c.Source.GPIO.Edge); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if c.Source.GPIO.Debounce < 0 {
			return fmt.Errorf("%w: gpio.debounce must not be negative", ErrInvalid)
		}
	case pulse.KindSerial:
		if c.Source.Serial.Port == "" {
			return fmt.Errorf("%w: serial.port is required", ErrInvalid)
		}
		if c.Source.Serial.Baud <= 0 {
			return fmt.Errorf("%w: serial.baud must be > 0", ErrInvalid)
		}
		if _, err := pulse.ParseSerialMode(c.Source.Serial.Mode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	default:
		return fmt.Errorf("%w: source.kind %q (allowed: gpio, serial, synthetic)", ErrInvalid, c.Source.Kind)
	}

	if c.MQTT.Broker != "" && c.MQTT.ClientID == "" {
		return fmt.Errorf("%w: mqtt.client_id is required with a broker", ErrInvalid)
	}
	if c.InfluxDB.Host != "" && c.InfluxDB.Bucket == "" {
		return fmt.Errorf("%w: influxdb.bucket is required with a host", ErrInvalid)
	}
	return nil
}
