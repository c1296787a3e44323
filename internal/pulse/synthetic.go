package pulse

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxGap is the upper bound of the random gap between synthetic pulses.
	DefaultMaxGap = 90 * time.Microsecond

	// DefaultSyntheticPulses is the pulse count of a demo run.
	DefaultSyntheticPulses = 300
)

// SyntheticSource emits pulses separated by uniformly random gaps in [0, MaxGap).
// It stands in for a sensor in demo mode.
type SyntheticSource struct {
	maxGap  time.Duration
	pulses  int
	rng     *rand.Rand
	now     func() time.Time
	handler Handler
}

// NewSyntheticSource creates a synthetic source. pulses <= 0 runs until cancelled.
// A zero seed draws one from the current time.
func NewSyntheticSource(maxGap time.Duration, pulses int, seed int64) *SyntheticSource {
	if maxGap <= 0 {
		maxGap = DefaultMaxGap
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticSource{
		maxGap: maxGap,
		pulses: pulses,
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
	}
}

// Subscribe sets the pulse handler.
func (s *SyntheticSource) Subscribe(h Handler) {
	s.handler = h
}

// Run sleeps a random gap before each pulse.
func (s *SyntheticSource) Run(ctx context.Context) error {
	if s.handler == nil {
		return ErrNoHandler
	}
	for i := 0; s.pulses <= 0 || i < s.pulses; i++ {
		gap := time.Duration(s.rng.Int63n(int64(s.maxGap)))
		if !sleepCtx(ctx, gap) {
			return nil
		}
		s.handler(s.now())
	}
	return nil
}

// Close is a no-op.
func (s *SyntheticSource) Close() error {
	return nil
}
