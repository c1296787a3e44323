package entropy

import "time"

// Extractor feeds pulse timestamps through a PulseWindow into an Accumulator.
// Not safe for concurrent use; one Extractor per sensor, single writer.
type Extractor struct {
	window PulseWindow
	acc    *Accumulator
	counts Counts
}

// NewExtractor creates an extractor producing values of the given width.
func NewExtractor(width int) (*Extractor, error) {
	acc, err := NewAccumulator(width)
	if err != nil {
		return nil, err
	}
	return &Extractor{acc: acc}, nil
}

// NotifyPulse records a pulse arrival. It returns the completed value when the
// bit derived from this pulse fills the accumulator.
func (e *Extractor) NotifyPulse(t time.Time) (Value, bool) {
	e.counts.Pulses++

	bit, ok := e.window.Record(t)
	if !ok {
		return Value{}, false
	}

	e.counts.Bits++
	if bit == One {
		e.counts.Ones++
	}

	n, full := e.acc.Append(bit)
	if !full {
		return Value{}, false
	}

	e.counts.Values++
	return Value{Timestamp: t, Width: e.acc.Width(), Number: n}, true
}

// TryTakeCompleted returns the assembled number if the accumulator is full.
// The next pulse that yields a bit discards it.
func (e *Extractor) TryTakeCompleted() (uint64, bool) {
	if !e.acc.Full() {
		return 0, false
	}
	return e.acc.Value()
}

// Value returns the number assembled from the bits collected so far.
func (e *Extractor) Value() (uint64, bool) {
	return e.acc.Value()
}

// BitCount returns the number of bits in the current, possibly partial, value.
func (e *Extractor) BitCount() int {
	return e.acc.Len()
}

// Width returns the number of bits per value.
func (e *Extractor) Width() int {
	return e.acc.Width()
}

// Window returns the timestamps currently in the pulse window.
func (e *Extractor) Window() []time.Time {
	return e.window.Timestamps()
}

// Counts returns totals since the extractor was created.
func (e *Extractor) Counts() Counts {
	return e.counts
}
