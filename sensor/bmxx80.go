package sensor

import (
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

const (
	bmxAddr    = 0x76
	bmp180Addr = 0x77
)

// bmx wraps a Bosch BMx80 sensor driven by periph's bmxx80 package. One
// chip reports temperature, pressure and, on the BME280, humidity.
type bmx struct {
	bus  i2c.Bus
	addr uint16
	kind string
	dev  *bmxx80.Dev
}

func newBMX(bus i2c.Bus, addr uint16, kind string) *bmx {
	return &bmx{bus: bus, addr: addr, kind: kind}
}

func (d *bmx) Name() string { return strings.ToUpper(d.kind) }

func (d *bmx) Init() error {
	dev, err := bmxx80.NewI2C(d.bus, d.addr, &bmxx80.DefaultOpts)
	if err != nil {
		return err
	}
	d.dev = dev
	return nil
}

func (d *bmx) sense() (physic.Env, error) {
	var e physic.Env
	err := d.dev.Sense(&e)
	return e, err
}

func (d *bmx) Halt() error {
	return d.dev.Halt()
}

type bmxHumidity struct{ *bmx }

func (d *bmxHumidity) Read() (HumidityReading, error) {
	e, err := d.sense()
	if err != nil {
		return HumidityReading{}, err
	}
	return HumidityReading{
		HumidityValid:    d.kind == "bme280",
		Humidity:         e.Humidity,
		TemperatureValid: true,
		Temperature:      e.Temperature,
	}, nil
}

type bmxPressure struct{ *bmx }

func (d *bmxPressure) Read() (PressureReading, error) {
	e, err := d.sense()
	if err != nil {
		return PressureReading{}, err
	}
	return PressureReading{
		PressureValid:    true,
		Pressure:         e.Pressure,
		TemperatureValid: true,
		Temperature:      e.Temperature,
	}, nil
}
