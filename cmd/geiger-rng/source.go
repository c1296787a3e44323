package main

import (
	"fmt"

	"github.com/sweeney/geiger-rng/internal/config"
	"github.com/sweeney/geiger-rng/internal/pulse"
)

func newSource(cfg config.Config) (pulse.Source, error) {
	sc := cfg.Source
	switch pulse.Kind(sc.Kind) {
	case pulse.KindSynthetic:
		return pulse.NewSyntheticSource(sc.Synthetic.MaxGap, sc.Synthetic.Pulses, sc.Synthetic.Seed), nil
	case pulse.KindGPIO:
		edge, err := pulse.ParseEdge(sc.GPIO.Edge)
		if err != nil {
			return nil, err
		}
		src, err := pulse.NewGPIOSource(pulse.GPIOConfig{
			Chip:     sc.GPIO.Chip,
			Line:     sc.GPIO.Line,
			Edge:     edge,
			Debounce: sc.GPIO.Debounce,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case pulse.KindSerial:
		mode, err := pulse.ParseSerialMode(sc.Serial.Mode)
		if err != nil {
			return nil, err
		}
		return pulse.NewSerialSource(sc.Serial.Port, sc.Serial.Baud, mode), nil
	}
	return nil, fmt.Errorf("unknown source kind: %q", sc.Kind)
}
