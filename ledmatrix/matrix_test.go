package ledmatrix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDevice is a 128 byte device that records every positioned write and
// can be told to fail after a number of writes.
type memDevice struct {
	buf       [FrameSize]byte
	writes    []int64
	sizes     []int
	failAfter int // 0 never fails
	closed    bool
}

var errDevice = errors.New("device removed")

func (d *memDevice) WriteAt(p []byte, off int64) (int, error) {
	if d.failAfter > 0 && len(d.writes) >= d.failAfter {
		return 0, errDevice
	}
	d.writes = append(d.writes, off)
	d.sizes = append(d.sizes, len(p))
	return copy(d.buf[off:], p), nil
}

func (d *memDevice) Close() error {
	d.closed = true
	return nil
}

// newFileDevice creates a FrameSize file filled with fill and returns its
// path.
func newFileDevice(t *testing.T, fill byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fb1")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{fill}, FrameSize), 0o600))
	return path
}

func nativePixel(v uint16) []byte {
	b := make([]byte, 2)
	binary.NativeEndian.PutUint16(b, v)
	return b
}

func TestOffsetCoversFrameExactly(t *testing.T) {
	seen := map[int64]bool{}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			off := Offset(row, col)
			assert.Zero(t, off%BytesPerPixel, "offset of (%d, %d) is odd", row, col)
			assert.GreaterOrEqual(t, off, int64(0))
			assert.Less(t, off, int64(FrameSize))
			assert.False(t, seen[off], "offset %d used twice", off)
			seen[off] = true
		}
	}
	assert.Len(t, seen, FrameSize/BytesPerPixel)
	assert.Equal(t, int64(0), Offset(0, 0))
	assert.Equal(t, int64(FrameSize-BytesPerPixel), Offset(Rows-1, Cols-1))
}

func TestOffsetOutOfRangeIsDeterministic(t *testing.T) {
	tests := []struct {
		row, col int
		want     int64
	}{
		{8, 0, 128},
		{7, 8, 128},
		{8, 8, 144},
		{0, 8, 16},
		{-1, 0, -16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Offset(tt.row, tt.col), "Offset(%d, %d)", tt.row, tt.col)
	}
}

func TestSetPixelWritesNativeOrderAtOffset(t *testing.T) {
	path := newFileDevice(t, 0xAA)
	m, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, m.SetPixel(Color{255, 127, 0}, 0, 0))
	require.NoError(t, m.SetPixel(Color{0, 0, 255}, 3, 5))
	require.NoError(t, m.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, FrameSize)

	assert.Equal(t, nativePixel(0b11111_011111_00000), got[0:2])
	off := Offset(3, 5)
	assert.Equal(t, nativePixel(0x001F), got[off:off+2])
	// Untouched cells keep their previous content.
	assert.Equal(t, []byte{0xAA, 0xAA}, got[2:4])
}

func TestSetPixelRejectsOutOfRange(t *testing.T) {
	dev := &memDevice{}
	m := New(dev, "mem")

	for _, rc := range [][2]int{{8, 0}, {0, 8}, {-1, 3}, {3, -1}, {100, 100}} {
		err := m.SetPixel(Color{255, 255, 255}, rc[0], rc[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOutOfRange))

		var re *RangeError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, rc[0], re.Row)
		assert.Equal(t, rc[1], re.Col)
		assert.Equal(t, Offset(rc[0], rc[1]), re.Offset)
	}
	assert.Empty(t, dev.writes)
}

func TestClearZeroesEveryCell(t *testing.T) {
	path := newFileDevice(t, 0xFF)
	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Clear())
	once, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, FrameSize), once)

	require.NoError(t, m.Clear())
	twice, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestClearOrderAndFailure(t *testing.T) {
	dev := &memDevice{}
	m := New(dev, "mem")
	require.NoError(t, m.Clear())
	require.Len(t, dev.writes, Rows*Cols)
	for i, off := range dev.writes {
		assert.Equal(t, int64(i*BytesPerPixel), off)
		assert.Equal(t, BytesPerPixel, dev.sizes[i])
	}

	failing := &memDevice{failAfter: 10}
	for i := range failing.buf {
		failing.buf[i] = 0xFF
	}
	m = New(failing, "mem")
	err := m.Clear()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDevice))
	assert.Len(t, failing.writes, 10)
	// Cells after the failure are left as they were.
	assert.Equal(t, byte(0), failing.buf[18])
	assert.Equal(t, byte(0xFF), failing.buf[20])
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCloseIsFinal(t *testing.T) {
	dev := &memDevice{}
	m := New(dev, "mem")
	require.NoError(t, m.Close())
	assert.True(t, dev.closed)

	assert.ErrorIs(t, m.Close(), ErrClosed)
	assert.ErrorIs(t, m.SetPixel(Black, 0, 0), ErrClosed)
	assert.ErrorIs(t, m.Clear(), ErrClosed)
	assert.ErrorIs(t, m.Fill(Black), ErrClosed)
	assert.ErrorIs(t, m.Draw(m.Bounds(), image.NewNRGBA(m.Bounds()), image.Point{}), ErrClosed)
	assert.Empty(t, dev.writes)
}

func TestDrawFullFrameMatchesSequentialWrites(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, Cols, Rows))
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: uint8(x*y + 7), A: 255})
		}
	}

	batched := &memDevice{}
	require.NoError(t, New(batched, "batched").Draw(img.Bounds(), img, image.Point{}))
	assert.Equal(t, []int64{0}, batched.writes)
	assert.Equal(t, []int{FrameSize}, batched.sizes)

	sequential := &memDevice{}
	m := New(sequential, "sequential")
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			c := img.NRGBAAt(x, y)
			require.NoError(t, m.SetPixel(Color{c.R, c.G, c.B}, y, x))
		}
	}
	assert.Equal(t, sequential.buf, batched.buf)
}

func TestDrawPartialRect(t *testing.T) {
	src := image.NewUniform(color.NRGBA{R: 255, A: 255})
	dev := &memDevice{}
	m := New(dev, "mem")

	require.NoError(t, m.Draw(image.Rect(6, 6, 10, 10), src, image.Point{}))
	// Clipped to the 2x2 corner.
	assert.Equal(t, []int64{Offset(6, 6), Offset(6, 7), Offset(7, 6), Offset(7, 7)}, dev.writes)
	off := Offset(7, 7)
	assert.Equal(t, nativePixel(0xF800), dev.buf[off:off+2])

	require.NoError(t, m.Draw(image.Rect(20, 20, 30, 30), src, image.Point{}))
	assert.Len(t, dev.writes, 4)
}

func TestFillAndHalt(t *testing.T) {
	dev := &memDevice{}
	m := New(dev, "mem")

	require.NoError(t, m.Fill(Color{255, 255, 255}))
	assert.Equal(t, []int64{0}, dev.writes)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, FrameSize), dev.buf[:])

	require.NoError(t, m.Halt())
	assert.Equal(t, make([]byte, FrameSize), dev.buf[:])
	assert.Equal(t, "ledmatrix{mem}", m.String())
	assert.Equal(t, image.Rect(0, 0, 8, 8), m.Bounds())
}
