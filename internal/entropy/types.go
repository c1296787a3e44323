// Package entropy turns pulse arrival times into random bits and fixed-width integers.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package entropy

import (
	"errors"
	"fmt"
	"math/bits"
	"time"
)

// Bit is a single derived random bit, Zero or One.
type Bit uint8

const (
	Zero Bit = 0
	One  Bit = 1
)

const (
	// WindowSize is the number of pulse timestamps needed to derive one bit.
	WindowSize = 3

	// DefaultWidth is the number of bits per assembled value.
	DefaultWidth = 8

	// MaxWidth is the largest width that fits a uint64.
	MaxWidth = 64
)

// ErrInvalidWidth is returned when an accumulator is built with a width outside 1..MaxWidth.
var ErrInvalidWidth = errors.New("entropy: width must be between 1 and 64")

// Value is one completed integer.
type Value struct {
	// Timestamp of the pulse whose bit completed the value.
	Timestamp time.Time
	Width     int
	Number    uint64
}

// Bits renders the value as a zero-padded binary string, MSB first.
func (v Value) Bits() string {
	return fmt.Sprintf("%0*b", v.Width, v.Number)
}

// Ones returns the number of one bits in the value.
func (v Value) Ones() int {
	return bits.OnesCount64(v.Number)
}

// Counts tracks totals since startup.
type Counts struct {
	Pulses uint64
	Bits   uint64
	Ones   uint64
	Values uint64
}
