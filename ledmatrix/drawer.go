package ledmatrix

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
)

var _ display.Drawer = (*Matrix)(nil)

// String names the device node.
func (m *Matrix) String() string {
	return "ledmatrix{" + m.name + "}"
}

// Halt clears the matrix.
func (m *Matrix) Halt() error {
	return m.Clear()
}

// ColorModel is RGB565Model; colours are truncated to 5/6/5 bits.
func (m *Matrix) ColorModel() color.Model {
	return RGB565Model
}

// Bounds is the 8x8 grid, x being the column and y the row.
func (m *Matrix) Bounds() image.Rectangle {
	return image.Rect(0, 0, Cols, Rows)
}

// Draw copies src, starting at sp, into the cells of dstRect. x is the
// column and y the row. When dstRect covers the whole grid the frame is
// encoded up front and written with one call; otherwise each cell is
// written on its own.
func (m *Matrix) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	if m.closed {
		return ErrClosed
	}
	r := dstRect.Intersect(m.Bounds())
	if r.Empty() {
		return nil
	}
	at := func(x, y int) Color {
		return toColor(src.At(sp.X+x-dstRect.Min.X, sp.Y+y-dstRect.Min.Y))
	}

	if r != m.Bounds() {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if err := m.SetPixel(at(x, y), y, x); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var frame [FrameSize]byte
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			b := at(x, y).RGB565().Bytes()
			copy(frame[Offset(y, x):], b[:])
		}
	}
	return m.writeAt(frame[:], 0)
}
