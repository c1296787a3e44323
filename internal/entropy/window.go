package entropy

import "time"

// PulseWindow keeps the last WindowSize pulse timestamps and derives a bit
// each time the window is full.
type PulseWindow struct {
	times [WindowSize]time.Time
	n     int
}

// Record adds a pulse timestamp, dropping the oldest once the window is full.
// When the window holds WindowSize timestamps it returns the derived bit:
// One if the first interval is strictly longer than the second, Zero otherwise.
// Timestamps are expected in arrival order; that is not checked.
func (w *PulseWindow) Record(t time.Time) (Bit, bool) {
	if w.n == WindowSize {
		copy(w.times[:], w.times[1:])
		w.n--
	}
	w.times[w.n] = t
	w.n++

	if w.n < WindowSize {
		return Zero, false
	}

	d1 := w.times[1].Sub(w.times[0])
	d2 := w.times[2].Sub(w.times[1])
	// Ties go to Zero.
	if d1 > d2 {
		return One, true
	}
	return Zero, true
}

// Len returns the number of timestamps currently held.
func (w *PulseWindow) Len() int {
	return w.n
}

// Timestamps returns a copy of the held timestamps, oldest first.
func (w *PulseWindow) Timestamps() []time.Time {
	out := make([]time.Time, w.n)
	copy(out, w.times[:w.n])
	return out
}
