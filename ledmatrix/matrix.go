// Package ledmatrix drives the 8x8 RGB LED matrix of the Raspberry Pi Sense
// HAT through its Linux framebuffer device.
//
// The matrix is exposed by the rpisense-fb kernel driver as a 128 byte
// framebuffer, one RGB565 value per cell in row-major order. Every write is
// positioned at the cell's byte offset and reaches the device immediately;
// nothing is buffered in memory.
package ledmatrix

import (
	"fmt"
	"io"
	"os"
)

const (
	Rows          = 8
	Cols          = 8
	BytesPerPixel = 2
	// FrameSize is the number of device bytes covering the whole grid.
	FrameSize = Rows * Cols * BytesPerPixel
)

// Device is the write target of a Matrix. *os.File satisfies it; tests use
// in-memory doubles.
type Device interface {
	io.WriterAt
}

// Matrix is an open handle to the matrix device.
//
// It is not safe for concurrent use.
type Matrix struct {
	dev    Device
	name   string
	closed bool
}

// Open opens the device node at path for writing only. It does not check
// that the device is a Sense HAT framebuffer.
func Open(path string) (*Matrix, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open led matrix: %w", err)
	}
	return New(f, path), nil
}

// New wraps an already open device. If dev implements io.Closer it is
// closed by Close.
func New(dev Device, name string) *Matrix {
	return &Matrix{dev: dev, name: name}
}

// Offset returns the byte offset of the cell at row, col. It is defined for
// any input; coordinates outside the grid yield offsets outside
// [0, FrameSize).
func Offset(row, col int) int64 {
	return int64((row*Cols + col) * BytesPerPixel)
}

// InRange reports whether row, col address a cell of the grid.
func InRange(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// SetPixel encodes c and writes it to the cell at row, col.
func (m *Matrix) SetPixel(c Color, row, col int) error {
	if m.closed {
		return ErrClosed
	}
	if !InRange(row, col) {
		return &RangeError{Row: row, Col: col, Offset: Offset(row, col)}
	}
	b := c.RGB565().Bytes()
	return m.writeAt(b[:], Offset(row, col))
}

// Clear sets every cell to black, row by row. It stops at the first failed
// write, leaving the matrix partially cleared.
func (m *Matrix) Clear() error {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if err := m.SetPixel(Black, row, col); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fill sets every cell to c with a single frame write.
func (m *Matrix) Fill(c Color) error {
	if m.closed {
		return ErrClosed
	}
	var frame [FrameSize]byte
	b := c.RGB565().Bytes()
	for i := 0; i < FrameSize; i += BytesPerPixel {
		copy(frame[i:], b[:])
	}
	return m.writeAt(frame[:], 0)
}

// Close releases the device. The Matrix cannot be reused.
func (m *Matrix) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	if c, ok := m.dev.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close led matrix: %w", err)
		}
	}
	return nil
}

// Name returns the device path or name the Matrix was created with.
func (m *Matrix) Name() string { return m.name }

func (m *Matrix) writeAt(b []byte, off int64) error {
	n, err := m.dev.WriteAt(b, off)
	if err != nil {
		return fmt.Errorf("write led matrix at %d: %w", off, err)
	}
	if n != len(b) {
		return fmt.Errorf("write led matrix at %d: %w", off, io.ErrShortWrite)
	}
	return nil
}
