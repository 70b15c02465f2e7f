package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

const (
	hts221Addr = 0x5F
	hts221ID   = 0xBC

	hts221WhoAmI   = 0x0F
	hts221AvConf   = 0x10
	hts221Ctrl1    = 0x20
	hts221Status   = 0x27
	hts221HumOut   = 0x28
	hts221TempOut  = 0x2A
	hts221CalStart = 0x30

	hts221HumidityReady    = 0x02
	hts221TemperatureReady = 0x01
)

// hts221 drives the ST HTS221 humidity and temperature sensor.
type hts221 struct {
	r regs

	// Calibration, converted to two points per line.
	h0, h1       float64 // %rH
	h0Out, h1Out float64
	t0, t1       float64 // °C
	t0Out, t1Out float64
}

func newHTS221(bus i2c.Bus, addr uint16) *hts221 {
	return &hts221{r: regs{&i2c.Dev{Bus: bus, Addr: addr}}}
}

func (d *hts221) Name() string { return "HTS221" }

func (d *hts221) Init() error {
	id, err := d.r.readByte(hts221WhoAmI)
	if err != nil {
		return err
	}
	if id != hts221ID {
		return fmt.Errorf("unexpected chip id %#x", id)
	}
	// Power on, block data update, 12.5Hz; 32 humidity / 16 temperature
	// samples averaged.
	if err := d.r.writeAll([2]byte{hts221Ctrl1, 0x87}, [2]byte{hts221AvConf, 0x1B}); err != nil {
		return err
	}

	var cal [16]byte
	if err := d.r.read(hts221CalStart, cal[:]); err != nil {
		return err
	}
	le := func(i int) float64 { return float64(int16(binary.LittleEndian.Uint16(cal[i:]))) }
	d.h0 = float64(cal[0]) / 2
	d.h1 = float64(cal[1]) / 2
	d.t0 = float64(uint16(cal[5]&0x03)<<8|uint16(cal[2])) / 8
	d.t1 = float64(uint16(cal[5]&0x0C)<<6|uint16(cal[3])) / 8
	d.h0Out = le(6)
	d.h1Out = le(10)
	d.t0Out = le(12)
	d.t1Out = le(14)
	if d.h1Out == d.h0Out || d.t1Out == d.t0Out {
		return errors.New("invalid calibration data")
	}
	return nil
}

func (d *hts221) Read() (HumidityReading, error) {
	var out HumidityReading
	status, err := d.r.readByte(hts221Status)
	if err != nil {
		return out, err
	}
	if status&hts221HumidityReady != 0 {
		raw, err := d.r.readInt16(hts221HumOut)
		if err != nil {
			return out, err
		}
		out.Humidity = percentRH(interpolate(float64(raw), d.h0Out, d.h1Out, d.h0, d.h1))
		out.HumidityValid = true
	}
	if status&hts221TemperatureReady != 0 {
		raw, err := d.r.readInt16(hts221TempOut)
		if err != nil {
			return out, err
		}
		out.Temperature = celsius(interpolate(float64(raw), d.t0Out, d.t1Out, d.t0, d.t1))
		out.TemperatureValid = true
	}
	return out, nil
}

func (d *hts221) Halt() error {
	return d.r.write(hts221Ctrl1, 0x00)
}

// interpolate maps raw onto the line through (x0, y0) and (x1, y1).
func interpolate(raw, x0, x1, y0, y1 float64) float64 {
	return y0 + (raw-x0)*(y1-y0)/(x1-x0)
}
