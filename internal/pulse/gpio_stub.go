//go:build !linux

package pulse

import (
	"context"
	"errors"
)

// GPIOSource is not available on non-Linux platforms.
type GPIOSource struct{}

// NewGPIOSource returns an error on non-Linux platforms.
func NewGPIOSource(cfg GPIOConfig) (*GPIOSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Subscribe is a no-op on non-Linux platforms.
func (g *GPIOSource) Subscribe(h Handler) {}

// Run is not implemented on non-Linux platforms.
func (g *GPIOSource) Run(ctx context.Context) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (g *GPIOSource) Close() error {
	return nil
}
