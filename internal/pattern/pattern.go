// Package pattern builds 8x8 images for the LED matrix.
package pattern

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
)

var ErrUnknown = errors.New("unknown pattern")

const (
	Gradients = "gradient"
	Rainbows  = "rainbow"
)

// Names lists the static patterns accepted by Named.
var Names = []string{Gradients, Rainbows}

func blank() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, ledmatrix.Cols, ledmatrix.Rows))
}

// Gradient fades red down the rows and blue across the columns over a
// constant half green.
func Gradient() *image.NRGBA {
	im := blank()
	step := 0xff / ledmatrix.Rows
	for i := 0; i < ledmatrix.Rows; i++ {
		for j := 0; j < ledmatrix.Cols; j++ {
			im.SetNRGBA(j, i, color.NRGBA{
				R: uint8(0xff - step*i),
				G: 0x7f,
				B: uint8(step * j),
				A: 0xff,
			})
		}
	}
	return im
}

// Rainbow spreads the hue wheel along the diagonals. phase in [0,1) rotates
// the wheel; values outside wrap.
func Rainbow(phase float64) *image.NRGBA {
	im := blank()
	span := float64(ledmatrix.Rows + ledmatrix.Cols - 1)
	for y := 0; y < ledmatrix.Rows; y++ {
		for x := 0; x < ledmatrix.Cols; x++ {
			h := math.Mod(float64(x+y)/span+phase, 1)
			if h < 0 {
				h++
			}
			r, g, b := colorful.Hsv(h*360, 1, 1).RGB255()
			im.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return im
}

func Solid(c ledmatrix.Color) *image.NRGBA {
	im := blank()
	fill(im, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	return im
}

// Named returns the static pattern called name.
func Named(name string, phase float64) (*image.NRGBA, error) {
	switch name {
	case Gradients:
		return Gradient(), nil
	case Rainbows:
		return Rainbow(phase), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Flatten lays img out row-major on a single line, the shape expected by
// strip drawers.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()*b.Dy(), 1))
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(i, 0, img.At(x, y))
			i++
		}
	}
	return out
}

func fill(im *image.NRGBA, c color.NRGBA) {
	b := im.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			im.SetNRGBA(x, y, c)
		}
	}
}
