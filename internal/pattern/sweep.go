package pattern

import (
	"fmt"
	"image"
	"image/color"

	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
)

type Kind string

const (
	None        Kind = ""
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
)

// ParseKind accepts the hardware test names used on the command line and
// over the control socket.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case IndexSweep, RGBChannels:
		return k, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Sweep steps through a hardware test one frame at a time.
type Sweep struct {
	kind Kind
	step int
}

func NewSweep(kind Kind) *Sweep { return &Sweep{kind: kind} }

func (s *Sweep) Kind() Kind { return s.kind }

// Len is the number of frames the test produces.
func (s *Sweep) Len() int {
	switch s.kind {
	case IndexSweep:
		return ledmatrix.Rows * ledmatrix.Cols
	case RGBChannels:
		return 3
	}
	return 0
}

// Step draws the next frame into im; returns false when complete.
func (s *Sweep) Step(im *image.NRGBA) bool {
	if s.step >= s.Len() {
		return false
	}
	fill(im, color.NRGBA{A: 0xff})

	switch s.kind {
	case IndexSweep:
		im.SetNRGBA(s.step%ledmatrix.Cols, s.step/ledmatrix.Cols, color.NRGBA{R: 255, G: 255, B: 255, A: 0xff})
	case RGBChannels:
		c := color.NRGBA{A: 0xff}
		switch s.step {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		fill(im, c)
	}
	s.step++
	return true
}

// Frame returns a fresh image for Step.
func Frame() *image.NRGBA { return blank() }
