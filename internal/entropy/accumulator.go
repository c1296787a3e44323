package entropy

import "fmt"

// Accumulator collects bits MSB-first until it holds Width of them.
//
// A full accumulator keeps its bits until the next Append, which clears the
// buffer before storing the new bit. Callers that poll with Value or Full must
// read before that next Append; Append itself also returns the completed value.
type Accumulator struct {
	width int
	bits  uint64
	n     int
}

// NewAccumulator creates an empty accumulator for values of the given width.
func NewAccumulator(width int) (*Accumulator, error) {
	if width < 1 || width > MaxWidth {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}
	return &Accumulator{width: width}, nil
}

// Append stores a bit. If the accumulator was already full it is reset first.
// It returns the assembled number when this bit fills the accumulator.
// Append panics if b is not Zero or One.
func (a *Accumulator) Append(b Bit) (uint64, bool) {
	if b > One {
		panic(fmt.Sprintf("entropy: invalid bit %d", b))
	}

	if a.n == a.width {
		a.bits = 0
		a.n = 0
	}

	a.bits = a.bits<<1 | uint64(b)
	a.n++

	if a.n == a.width {
		return a.bits, true
	}
	return 0, false
}

// Len returns the number of bits collected since the last reset.
func (a *Accumulator) Len() int {
	return a.n
}

// Width returns the number of bits per value.
func (a *Accumulator) Width() int {
	return a.width
}

// Full reports whether the accumulator holds Width bits.
func (a *Accumulator) Full() bool {
	return a.n == a.width
}

// Value interprets the collected bits as a base-2 number, first bit most
// significant. It returns false when no bits have been collected; zero is a
// valid value and is distinct from "nothing yet".
func (a *Accumulator) Value() (uint64, bool) {
	if a.n == 0 {
		return 0, false
	}
	return a.bits, true
}

// Bits returns the collected bits in arrival order.
func (a *Accumulator) Bits() []Bit {
	out := make([]Bit, a.n)
	for i := range out {
		out[i] = Bit(a.bits >> uint(a.n-1-i) & 1)
	}
	return out
}
