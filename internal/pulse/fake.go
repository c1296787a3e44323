package pulse

import (
	"context"
	"time"
)

// FakeSource is a test double that delivers scripted timestamps.
type FakeSource struct {
	// Timestamps are delivered in order, one per pulse.
	Timestamps []time.Time

	// RunError, if set, is returned by Run after all timestamps are delivered.
	RunError error

	// Closed tracks if Close was called
	Closed bool

	handler Handler
}

// NewFakeSource creates a FakeSource with the given timestamps.
func NewFakeSource(timestamps []time.Time) *FakeSource {
	return &FakeSource{Timestamps: timestamps}
}

// Subscribe sets the pulse handler.
func (f *FakeSource) Subscribe(h Handler) {
	f.handler = h
}

// Run delivers every scripted timestamp, stopping early if ctx is cancelled.
func (f *FakeSource) Run(ctx context.Context) error {
	if f.handler == nil {
		return ErrNoHandler
	}
	for _, ts := range f.Timestamps {
		if ctx.Err() != nil {
			return nil
		}
		f.handler(ts)
	}
	return f.RunError
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
