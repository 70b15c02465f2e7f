package ledmatrix

import (
	"encoding/binary"
	"image/color"
)

// Field layout of an RGB565 pixel: red in the top 5 bits, green in the
// middle 6, blue in the low 5.
const (
	redOffset   uint8 = 11
	greenOffset uint8 = 5
	blueOffset  uint8 = 0

	redBits   uint8 = 5
	greenBits uint8 = 6
	blueBits  uint8 = 5
)

// Color is a true-colour request. It is consumed by the encoder on every
// write and never stored by the driver.
type Color struct {
	R, G, B uint8
}

// Black is the colour every cell is set to by Clear.
var Black = Color{}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// RGB565 down-samples c to the matrix's native 16 bit format by keeping the
// top bits of every channel.
func (c Color) RGB565() Pixel {
	var p Pixel
	p = setField(p, c.R>>(8-redBits), redBits, redOffset)
	p = setField(p, c.G>>(8-greenBits), greenBits, greenOffset)
	p = setField(p, c.B>>(8-blueBits), blueBits, blueOffset)
	return p
}

// Pixel is an encoded RGB565 value, the unit written to the device.
type Pixel uint16

// Red returns the 5 bit red field.
func (p Pixel) Red() uint8 { return getField(p, redBits, redOffset) }

// Green returns the 6 bit green field.
func (p Pixel) Green() uint8 { return getField(p, greenBits, greenOffset) }

// Blue returns the 5 bit blue field.
func (p Pixel) Blue() uint8 { return getField(p, blueBits, blueOffset) }

// Color expands every field back to 8 bits. The top bits of the encoded
// channels are recovered exactly; the low bits are zero.
func (p Pixel) Color() Color {
	return Color{
		R: p.Red() << (8 - redBits),
		G: p.Green() << (8 - greenBits),
		B: p.Blue() << (8 - blueBits),
	}
}

// RGBA implements color.Color.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	return p.Color().RGBA()
}

// Bytes returns the two bytes of p in the platform's native byte order, as
// the framebuffer expects them.
func (p Pixel) Bytes() [BytesPerPixel]byte {
	var b [BytesPerPixel]byte
	binary.NativeEndian.PutUint16(b[:], uint16(p))
	return b
}

// RGB565Model converts any colour to the Pixel the matrix would display.
var RGB565Model = color.ModelFunc(func(c color.Color) color.Color {
	if p, ok := c.(Pixel); ok {
		return p
	}
	return toColor(c).RGB565()
})

func toColor(c color.Color) Color {
	switch v := c.(type) {
	case Color:
		return v
	case Pixel:
		return v.Color()
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: nc.R, G: nc.G, B: nc.B}
}

func setField(p Pixel, v, bits, off uint8) Pixel {
	mask := Pixel(1<<bits-1) << off
	return (p &^ mask) | (Pixel(v)<<off)&mask
}

func getField(p Pixel, bits, off uint8) uint8 {
	mask := Pixel(1<<bits-1) << off
	return uint8((p & mask) >> off)
}
