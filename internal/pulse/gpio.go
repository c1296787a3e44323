package pulse

import (
	"fmt"
	"time"
)

// Edge selects which GPIO transition counts as a pulse.
type Edge string

const (
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
)

// GPIO defaults for a Geiger counter module on a Raspberry Pi.
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17 // BCM numbering
)

// ParseEdge validates an edge name.
func ParseEdge(s string) (Edge, error) {
	switch Edge(s) {
	case EdgeRising, EdgeFalling:
		return Edge(s), nil
	}
	return "", fmt.Errorf("invalid edge: %q (allowed: rising, falling)", s)
}

// GPIOConfig describes the line a Geiger counter is wired to.
type GPIOConfig struct {
	Chip     string
	Line     int
	Edge     Edge
	Debounce time.Duration // 0 disables kernel debounce
}

// monoToWall maps a CLOCK_MONOTONIC reading onto wall time using an anchor
// pair sampled together.
func monoToWall(anchorWall time.Time, anchorMono, mono time.Duration) time.Time {
	return anchorWall.Add(mono - anchorMono)
}
