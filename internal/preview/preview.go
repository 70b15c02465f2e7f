// Package preview shows matrix frames on the console when no Sense HAT is
// attached.
package preview

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-sensehat/internal/pattern"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
)

var _ display.Drawer = (*Drawer)(nil)

// Drawer accepts 8x8 frames and forwards them row-major to a strip drawer.
type Drawer struct {
	strip display.Drawer
	frame *image.NRGBA
}

// New prints frames on the terminal as a line of 64 cells.
func New() *Drawer {
	return Wrap(screen.New(ledmatrix.Rows * ledmatrix.Cols))
}

func Wrap(strip display.Drawer) *Drawer {
	return &Drawer{strip: strip, frame: pattern.Frame()}
}

func (d *Drawer) String() string { return "preview{" + d.strip.String() + "}" }

func (d *Drawer) Halt() error {
	draw.Draw(d.frame, d.frame.Bounds(), image.Black, image.Point{}, draw.Src)
	return d.strip.Halt()
}

func (d *Drawer) ColorModel() color.Model { return color.NRGBAModel }

func (d *Drawer) Bounds() image.Rectangle { return d.frame.Bounds() }

func (d *Drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.frame.Bounds())
	if r.Empty() {
		return nil
	}
	draw.Draw(d.frame, r, src, sp, draw.Src)
	return d.strip.Draw(d.strip.Bounds(), pattern.Flatten(d.frame), image.Point{})
}
