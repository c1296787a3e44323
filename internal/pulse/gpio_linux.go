//go:build linux

package pulse

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// GPIOSource reads pulses as edge events on a Linux GPIO character device line.
type GPIOSource struct {
	cfg     GPIOConfig
	handler Handler
}

// NewGPIOSource creates a source for the given line. The line is requested by Run.
func NewGPIOSource(cfg GPIOConfig) (*GPIOSource, error) {
	if cfg.Chip == "" {
		cfg.Chip = DefaultChip
	}
	if cfg.Edge == "" {
		cfg.Edge = EdgeRising
	}
	if _, err := ParseEdge(string(cfg.Edge)); err != nil {
		return nil, err
	}
	return &GPIOSource{cfg: cfg}, nil
}

// Subscribe sets the pulse handler.
func (g *GPIOSource) Subscribe(h Handler) {
	g.handler = h
}

// Run watches the line until ctx is cancelled.
// Event timestamps come from the kernel and are converted to wall time.
func (g *GPIOSource) Run(ctx context.Context) error {
	if g.handler == nil {
		return ErrNoHandler
	}

	anchorMono, err := monotonicNow()
	if err != nil {
		return fmt.Errorf("read monotonic clock: %w", err)
	}
	anchorWall := time.Now()

	chip, err := gpiocdev.NewChip(g.cfg.Chip)
	if err != nil {
		return fmt.Errorf("open gpio chip %s: %w", g.cfg.Chip, err)
	}
	defer chip.Close()

	edge := gpiocdev.WithRisingEdge
	if g.cfg.Edge == EdgeFalling {
		edge = gpiocdev.WithFallingEdge
	}

	handler := func(evt gpiocdev.LineEvent) {
		g.handler(monoToWall(anchorWall, anchorMono, evt.Timestamp))
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		edge,
		gpiocdev.WithEventHandler(handler),
	}
	if g.cfg.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(g.cfg.Debounce))
	}

	line, err := chip.RequestLine(g.cfg.Line, opts...)
	if err != nil {
		return fmt.Errorf("request line %d: %w", g.cfg.Line, err)
	}
	log.Info().Str("chip", g.cfg.Chip).Int("line", g.cfg.Line).Str("edge", string(g.cfg.Edge)).Msg("gpio: watching for pulses")

	<-ctx.Done()

	if err := line.Close(); err != nil {
		return fmt.Errorf("close line %d: %w", g.cfg.Line, err)
	}
	return nil
}

// Close is a no-op; Run releases the line on return.
func (g *GPIOSource) Close() error {
	return nil
}

func monotonicNow() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}
