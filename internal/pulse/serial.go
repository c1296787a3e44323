package pulse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialMode selects how serial data maps to pulses.
type SerialMode string

const (
	// SerialClick treats a read as one pulse, stamped at read time. Bytes
	// batched into the same read have no timing of their own and are dropped.
	SerialClick SerialMode = "click"

	// SerialMicros expects one decimal microsecond counter per line, as printed
	// by a microcontroller on each pulse. The counter may wrap at 2^32.
	SerialMicros SerialMode = "micros"
)

const serialReadTimeout = 500 * time.Millisecond

// batchWarnPeriod limits how often dropped click bytes are reported.
const batchWarnPeriod = 10 * time.Second

// ParseSerialMode validates a mode name.
func ParseSerialMode(s string) (SerialMode, error) {
	switch SerialMode(s) {
	case SerialClick, SerialMicros:
		return SerialMode(s), nil
	}
	return "", fmt.Errorf("invalid serial mode: %q (allowed: click, micros)", s)
}

// SerialSource reads pulses from a counter attached to a serial port.
type SerialSource struct {
	portName string
	baud     int
	mode     SerialMode
	handler  Handler
}

// NewSerialSource creates a source for the given port. The port is opened by Run.
func NewSerialSource(portName string, baud int, mode SerialMode) *SerialSource {
	return &SerialSource{portName: portName, baud: baud, mode: mode}
}

// Subscribe sets the pulse handler.
func (s *SerialSource) Subscribe(h Handler) {
	s.handler = h
}

// Run opens the port and decodes pulses until ctx is cancelled.
func (s *SerialSource) Run(ctx context.Context) error {
	if s.handler == nil {
		return ErrNoHandler
	}
	if s.portName == "" {
		return errors.New("serial port not configured")
	}

	port, err := serial.Open(s.portName, &serial.Mode{
		BaudRate: s.baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.portName, err)
	}
	defer func() { _ = port.Close() }()

	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Warn().Err(err).Str("port", s.portName).Msg("serial: flush input failed")
	}

	log.Info().Str("port", s.portName).Int("baud", s.baud).Str("mode", string(s.mode)).Msg("serial: reading pulses")

	dec := newSerialDecoder(s.mode, s.handler)
	buf := make([]byte, 256)
	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if err != nil {
			return fmt.Errorf("read %s: %w", s.portName, err)
		}
		if n > 0 {
			dec.feed(buf[:n], time.Now())
		}
	}
	return nil
}

// Close is a no-op; Run closes the port on return.
func (s *SerialSource) Close() error {
	return nil
}

// serialDecoder turns raw serial chunks into pulses.
type serialDecoder struct {
	mode    SerialMode
	handler Handler

	// click mode state
	dropped  uint64
	batchLog zerolog.Logger

	// micros mode state
	line    []byte
	started bool
	anchor  time.Time
	first   uint64
	last    uint64
	wraps   uint64
}

func newSerialDecoder(mode SerialMode, h Handler) *serialDecoder {
	return &serialDecoder{
		mode:     mode,
		handler:  h,
		batchLog: log.Logger.Sample(&zerolog.BurstSampler{Burst: 1, Period: batchWarnPeriod}),
	}
}

// feed processes one chunk received at readAt.
func (d *serialDecoder) feed(chunk []byte, readAt time.Time) {
	if d.mode != SerialMicros {
		if len(chunk) == 0 {
			return
		}
		// Equal stamps would force zero bits.
		d.handler(readAt)
		if extra := len(chunk) - 1; extra > 0 {
			d.dropped += uint64(extra)
			d.batchLog.Warn().
				Int("batched", len(chunk)).
				Uint64("dropped_total", d.dropped).
				Msg("serial: clicks arrived in one read, keeping the first")
		}
		return
	}

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			d.line = append(d.line, chunk...)
			return
		}
		d.line = append(d.line, chunk[:i]...)
		chunk = chunk[i+1:]
		d.parseLine(readAt)
		d.line = d.line[:0]
	}
}

func (d *serialDecoder) parseLine(readAt time.Time) {
	text := string(bytes.TrimSpace(d.line))
	if text == "" {
		return
	}
	v, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		log.Warn().Str("line", text).Msg("serial: ignoring malformed counter line")
		return
	}

	if !d.started {
		d.started = true
		d.anchor = readAt
		d.first = v
		d.last = v
		d.handler(readAt)
		return
	}

	if v < d.last {
		d.wraps++
	}
	d.last = v
	elapsed := d.wraps<<32 + v - d.first
	d.handler(d.anchor.Add(time.Duration(elapsed) * time.Microsecond))
}
