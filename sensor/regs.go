package sensor

import (
	"encoding/binary"

	"periph.io/x/conn/v3/i2c"
)

// The ST sensors only advance the register address during a multi-byte
// read when the top bit of the sub-address is set.
const autoIncrement = 0x80

// regs accesses the registers of an ST sensor.
type regs struct {
	d *i2c.Dev
}

func (r regs) read(reg byte, b []byte) error {
	if len(b) > 1 {
		reg |= autoIncrement
	}
	return r.d.Tx([]byte{reg}, b)
}

func (r regs) readByte(reg byte) (byte, error) {
	var b [1]byte
	err := r.read(reg, b[:])
	return b[0], err
}

func (r regs) readInt16(reg byte) (int16, error) {
	var b [2]byte
	if err := r.read(reg, b[:]); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b[:])), nil
}

func (r regs) write(reg, v byte) error {
	return r.d.Tx([]byte{reg, v}, nil)
}

func (r regs) writeAll(pairs ...[2]byte) error {
	for _, p := range pairs {
		if err := r.write(p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}
