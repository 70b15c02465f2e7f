package ledmatrix

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that no framebuffer carries the matrix identifier.
	// Find itself reports this as found == false; callers that treat absence
	// as fatal wrap this value.
	ErrNotFound = errors.New("ledmatrix: device not found")
	// ErrEnumeration reports that the device class directory could not be
	// listed.
	ErrEnumeration = errors.New("ledmatrix: cannot enumerate framebuffer devices")
	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("ledmatrix: coordinates out of range")
	// ErrClosed is returned by every operation on a released Matrix.
	ErrClosed = errors.New("ledmatrix: matrix closed")
)

// RangeError is returned by SetPixel for a cell outside the 8x8 grid.
type RangeError struct {
	Row, Col int
	// Offset is the byte offset the write would have targeted.
	Offset int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("ledmatrix: coordinates out of range: (%d, %d) -> offset %d", e.Row, e.Col, e.Offset)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }
