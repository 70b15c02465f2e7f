package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-sensehat/internal/app"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

func init() {
	rootCmd.AddCommand(senseCmd)
	senseCmd.Flags().DurationVar(&watchFlag, `watch`, 0, `read again at this period until interrupted`)
}

var watchFlag time.Duration

var senseCmd = &cobra.Command{
	Use:   "sense",
	Short: `print humidity, pressure and temperature`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, p, bus, err := app.OpenSensors(cfg.Sensors)
		if err != nil {
			return err
		}
		defer bus.Close()
		defer p.Close()
		defer h.Close()

		out := cmd.OutOrStdout()
		if watchFlag <= 0 {
			report(out, sensor.Take(h, p))
			return nil
		}
		app.Watch(cmd.Context(), watchFlag, func(t time.Time) {
			fmt.Fprintln(out, t.Format(time.Kitchen))
			report(out, sensor.Take(h, p))
			fmt.Fprintln(out)
		})
		return nil
	},
}

// report prints the readings of s and logs the reads that failed.
func report(w io.Writer, s sensor.Sample) {
	for _, e := range s.Errors {
		log.Warn().Str("error", e).Msg("sensor read failed")
	}
	for _, l := range s.Lines() {
		fmt.Fprintln(w, l)
	}
}
