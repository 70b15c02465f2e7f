package main

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-sensehat/internal/app"
	"github.com/coreman2200/funtimes-sensehat/internal/pattern"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
)

func init() {
	rootCmd.AddCommand(findCmd, clearCmd, setCmd, drawCmd)
	drawCmd.Flags().StringVar(&rgbFlag, `rgb`, `255,255,255`, `colour of the solid pattern as R,G,B`)
	drawCmd.Flags().Float64Var(&phaseFlag, `phase`, 0, `rainbow hue rotation in [0,1)`)
	drawCmd.Flags().DurationVar(&intervalFlag, `interval`, 100*time.Millisecond, `frame period of test sweeps`)
}

var (
	rgbFlag      string
	phaseFlag    float64
	intervalFlag time.Duration
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: `print the LED matrix device node`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := app.DevicePath(cfg.Matrix)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: `turn every LED off`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := app.OpenMatrix(cfg.Matrix)
		if err != nil {
			return err
		}
		return m.Close()
	},
}

var setCmd = &cobra.Command{
	Use:   "set ROW COL R G B",
	Short: `set one LED`,
	Long:  "set one LED. Rows and columns count from 0 at the top left; colour components are 0-255.",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("row: %w", err)
		}
		col, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("col: %w", err)
		}
		c, err := parseColor(args[2:])
		if err != nil {
			return err
		}
		path, err := app.DevicePath(cfg.Matrix)
		if err != nil {
			return err
		}
		m, err := ledmatrix.Open(path)
		if err != nil {
			return err
		}
		defer m.Close()
		return m.SetPixel(c, row, col)
	},
}

var drawCmd = &cobra.Command{
	Use:       "draw PATTERN",
	Short:     `draw a pattern or run a hardware test`,
	Long:      "draw a pattern (gradient, rainbow, solid) or run a hardware test (index_sweep, rgb_channels).\nWithout a matrix the frames are printed at the console.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{pattern.Gradients, pattern.Rainbows, "solid", string(pattern.IndexSweep), string(pattern.RGBChannels)},
	RunE: func(cmd *cobra.Command, args []string) error {
		var img *image.NRGBA
		var sweep *pattern.Sweep
		switch args[0] {
		case "solid":
			c, err := parseColor(strings.Split(rgbFlag, ","))
			if err != nil {
				return err
			}
			img = pattern.Solid(c)
		case string(pattern.IndexSweep), string(pattern.RGBChannels):
			sweep = pattern.NewSweep(pattern.Kind(args[0]))
		default:
			var err error
			if img, err = pattern.Named(args[0], phaseFlag); err != nil {
				return err
			}
		}

		d, err := app.OpenDrawer(cfg.Matrix)
		if err != nil {
			return err
		}
		defer closeDrawer(d)
		if sweep == nil {
			return d.Draw(d.Bounds(), img, image.Point{})
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		frame := pattern.Frame()
		app.Watch(ctx, intervalFlag, func(time.Time) {
			if !sweep.Step(frame) {
				cancel()
				return
			}
			if err = d.Draw(d.Bounds(), frame, image.Point{}); err != nil {
				cancel()
			}
		})
		if err != nil {
			return err
		}
		return d.Halt()
	},
}

func parseColor(parts []string) (ledmatrix.Color, error) {
	if len(parts) != 3 {
		return ledmatrix.Color{}, fmt.Errorf("colour needs 3 components, got %d", len(parts))
	}
	var v [3]uint8
	for i, s := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
		if err != nil {
			return ledmatrix.Color{}, fmt.Errorf("colour component %q: %w", s, err)
		}
		v[i] = uint8(n)
	}
	return ledmatrix.Color{R: v[0], G: v[1], B: v[2]}, nil
}
