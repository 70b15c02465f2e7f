package app

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-sensehat/sensor"
)

// OpenSensors opens the I2C bus named in s and initialises both sensors.
// The returned closer releases the bus; close the sensors first.
func OpenSensors(s sensor.Settings) (*sensor.HumiditySensor, *sensor.PressureSensor, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(s.Bus)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open i2c bus %q: %w", s.Bus, err)
	}
	h, p, err := InitSensors(bus, s)
	if err != nil {
		_ = bus.Close()
		return nil, nil, nil, err
	}
	return h, p, bus, nil
}

// InitSensors builds and initialises both sensors on bus.
func InitSensors(bus i2c.Bus, s sensor.Settings) (*sensor.HumiditySensor, *sensor.PressureSensor, error) {
	h, p, err := sensor.New(bus, s)
	if err != nil {
		return nil, nil, err
	}
	if err := h.Init(); err != nil {
		return nil, nil, err
	}
	log.Info().Str("sensor", h.Name()).Msg("using humidity sensor")
	if err := p.Init(); err != nil {
		_ = h.Close()
		return nil, nil, err
	}
	log.Info().Str("sensor", p.Name()).Msg("using pressure sensor")
	return h, p, nil
}
