// Package pulse provides pulse sources with hardware abstraction.
// Real sources read a Geiger counter on a GPIO line or a serial port.
// The synthetic and fake sources allow running without hardware.
package pulse

import (
	"context"
	"errors"
	"time"
)

// Handler receives the arrival time of each pulse.
type Handler func(ts time.Time)

// Source delivers pulse arrival times to a subscribed handler.
type Source interface {
	// Subscribe sets the handler called for every pulse. Must be called before Run.
	Subscribe(h Handler)

	// Run delivers pulses until the source is exhausted or ctx is cancelled,
	// both of which return nil. Device failures are returned as errors.
	Run(ctx context.Context) error

	// Close releases device resources.
	Close() error
}

// Kind names a source implementation in configuration and file names.
type Kind string

const (
	KindGPIO      Kind = "gpio"
	KindSerial    Kind = "serial"
	KindSynthetic Kind = "synthetic"
)

// ErrNoHandler is returned by Run when Subscribe was never called.
var ErrNoHandler = errors.New("pulse: no handler subscribed")

// sleepCtx waits for d or until ctx is done. Returns false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
