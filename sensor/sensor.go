// Package sensor reads the environmental sensors of the Sense HAT.
//
// Each sensor is a handle created from Settings, initialised once and then
// read any number of times. The chip behind a handle is chosen by name, the
// way RTIMULib picks its humidity and pressure drivers from its settings
// file:
//
//	humidity: hts221 (Sense HAT), bme280
//	pressure: lps25h (Sense HAT), bme280, bmp280, bmp180
//
// Datasheets
//
// https://www.st.com/resource/en/datasheet/hts221.pdf
//
// https://www.st.com/resource/en/datasheet/lps25h.pdf
package sensor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrNotInitialized is returned by Read before a successful Init.
	ErrNotInitialized = errors.New("sensor: not initialized")
	// ErrInit wraps every chip initialisation failure.
	ErrInit = errors.New("sensor: cannot initialize")
	// ErrUnknownChip is returned for a chip type no driver handles.
	ErrUnknownChip = errors.New("sensor: unknown chip")
)

// State is the lifecycle state of a sensor handle.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HumidityReading is one sample of a humidity sensor. A field is only
// meaningful when its Valid flag is set.
type HumidityReading struct {
	HumidityValid    bool
	Humidity         physic.RelativeHumidity
	TemperatureValid bool
	Temperature      physic.Temperature
}

// PressureReading is one sample of a pressure sensor.
type PressureReading struct {
	PressureValid    bool
	Pressure         physic.Pressure
	TemperatureValid bool
	Temperature      physic.Temperature
}

// chip is a sensor driver on the I2C bus.
type chip[R any] interface {
	Name() string
	Init() error
	Read() (R, error)
	Halt() error
}

// handle owns one chip and tracks whether it has been initialised.
type handle[R any] struct {
	chip  chip[R]
	state State
}

// Name returns the chip name, e.g. "HTS221".
func (h *handle[R]) Name() string { return h.chip.Name() }

// State reports whether Init has succeeded.
func (h *handle[R]) State() State { return h.state }

// Init prepares the chip for reading. It is a no-op on a Ready handle. On
// failure the handle stays Uninitialized and Init may be retried.
func (h *handle[R]) Init() error {
	if h.state == Ready {
		return nil
	}
	if err := h.chip.Init(); err != nil {
		return fmt.Errorf("%w %s: %v", ErrInit, h.chip.Name(), err)
	}
	h.state = Ready
	log.Debug().Str("chip", h.chip.Name()).Msg("sensor ready")
	return nil
}

// Read returns a sample. The handle must be Ready.
func (h *handle[R]) Read() (R, error) {
	if h.state != Ready {
		var zero R
		return zero, fmt.Errorf("%s: %w", h.chip.Name(), ErrNotInitialized)
	}
	return h.chip.Read()
}

// Close powers the chip down. The handle returns to Uninitialized.
func (h *handle[R]) Close() error {
	if h.state != Ready {
		return nil
	}
	h.state = Uninitialized
	return h.chip.Halt()
}

// HumiditySensor is a handle to the relative humidity sensor.
type HumiditySensor struct {
	handle[HumidityReading]
}

// PressureSensor is a handle to the barometric pressure sensor.
type PressureSensor struct {
	handle[PressureReading]
}

// ChipConfig selects a driver and its I2C address. A zero Addr uses the
// chip's default address.
type ChipConfig struct {
	Type string `yaml:"type"`
	Addr uint16 `yaml:"addr,omitempty"`
}

// Address is Addr, or the default address of the chip named by Type when
// Addr is zero. Unknown types resolve to 0.
func (c ChipConfig) Address() uint16 {
	if c.Addr != 0 {
		return c.Addr
	}
	switch c.Type {
	case "hts221":
		return hts221Addr
	case "lps25h":
		return lps25hAddr
	case "bme280", "bmp280":
		return bmxAddr
	case "bmp180":
		return bmp180Addr
	}
	return 0
}

// Settings describes where the sensors live.
type Settings struct {
	Bus      string     `yaml:"bus"`
	Humidity ChipConfig `yaml:"humidity"`
	Pressure ChipConfig `yaml:"pressure"`
}

// DefaultSettings matches a Sense HAT on the first I2C bus of a Raspberry Pi.
// Addresses are left zero so that changing only a Type picks that chip's
// own address.
func DefaultSettings() Settings {
	return Settings{
		Bus:      "1",
		Humidity: ChipConfig{Type: "hts221"},
		Pressure: ChipConfig{Type: "lps25h"},
	}
}

// NewHumidity creates an Uninitialized humidity handle for cfg.
func NewHumidity(bus i2c.Bus, cfg ChipConfig) (*HumiditySensor, error) {
	var c chip[HumidityReading]
	switch cfg.Type {
	case "hts221":
		c = newHTS221(bus, cfg.Address())
	case "bme280":
		c = &bmxHumidity{newBMX(bus, cfg.Address(), cfg.Type)}
	default:
		return nil, fmt.Errorf("%w: humidity %q", ErrUnknownChip, cfg.Type)
	}
	return &HumiditySensor{handle[HumidityReading]{chip: c}}, nil
}

// NewPressure creates an Uninitialized pressure handle for cfg.
func NewPressure(bus i2c.Bus, cfg ChipConfig) (*PressureSensor, error) {
	var c chip[PressureReading]
	switch cfg.Type {
	case "lps25h":
		c = newLPS25H(bus, cfg.Address())
	case "bme280", "bmp280":
		c = &bmxPressure{newBMX(bus, cfg.Address(), cfg.Type)}
	case "bmp180":
		c = &bmxPressure{newBMX(bus, cfg.Address(), cfg.Type)}
	default:
		return nil, fmt.Errorf("%w: pressure %q", ErrUnknownChip, cfg.Type)
	}
	return &PressureSensor{handle[PressureReading]{chip: c}}, nil
}

// New creates both handles described by s. Neither is initialised.
func New(bus i2c.Bus, s Settings) (*HumiditySensor, *PressureSensor, error) {
	h, err := NewHumidity(bus, s.Humidity)
	if err != nil {
		return nil, nil, err
	}
	p, err := NewPressure(bus, s.Pressure)
	if err != nil {
		return nil, nil, err
	}
	return h, p, nil
}

func celsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

func percentRH(rh float64) physic.RelativeHumidity {
	return physic.RelativeHumidity(rh * float64(physic.PercentRH))
}

func hectoPascal(hpa float64) physic.Pressure {
	return physic.Pressure(hpa * 100 * float64(physic.Pascal))
}
