package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

const (
	lps25hAddr = 0x5C
	lps25hID   = 0xBD

	lps25hWhoAmI   = 0x0F
	lps25hResConf  = 0x10
	lps25hCtrl1    = 0x20
	lps25hCtrl2    = 0x21
	lps25hStatus   = 0x27
	lps25hPressOut = 0x28
	lps25hTempOut  = 0x2B
	lps25hFIFOCtrl = 0x2E

	lps25hPressureReady    = 0x02
	lps25hTemperatureReady = 0x01
)

// lps25h drives the ST LPS25H pressure and temperature sensor.
type lps25h struct {
	r regs
}

func newLPS25H(bus i2c.Bus, addr uint16) *lps25h {
	return &lps25h{r: regs{&i2c.Dev{Bus: bus, Addr: addr}}}
}

func (d *lps25h) Name() string { return "LPS25H" }

func (d *lps25h) Init() error {
	id, err := d.r.readByte(lps25hWhoAmI)
	if err != nil {
		return err
	}
	if id != lps25hID {
		return fmt.Errorf("unexpected chip id %#x", id)
	}
	return d.r.writeAll(
		[2]byte{lps25hCtrl1, 0xC4},    // power on, 25Hz, block data update
		[2]byte{lps25hResConf, 0x05},  // 32 pressure / 16 temperature averages
		[2]byte{lps25hFIFOCtrl, 0xC0}, // FIFO mean mode
		[2]byte{lps25hCtrl2, 0x40},    // enable FIFO
	)
}

func (d *lps25h) Read() (PressureReading, error) {
	var out PressureReading
	status, err := d.r.readByte(lps25hStatus)
	if err != nil {
		return out, err
	}
	if status&lps25hPressureReady != 0 {
		var b [3]byte
		if err := d.r.read(lps25hPressOut, b[:]); err != nil {
			return out, err
		}
		raw := uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
		out.Pressure = hectoPascal(float64(raw) / 4096)
		out.PressureValid = true
	}
	if status&lps25hTemperatureReady != 0 {
		raw, err := d.r.readInt16(lps25hTempOut)
		if err != nil {
			return out, err
		}
		out.Temperature = celsius(42.5 + float64(raw)/480)
		out.TemperatureValid = true
	}
	return out, nil
}

func (d *lps25h) Halt() error {
	return d.r.write(lps25hCtrl1, 0x00)
}
