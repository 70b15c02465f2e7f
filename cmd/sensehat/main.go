package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-sensehat/internal/app"
	"github.com/coreman2200/funtimes-sensehat/internal/config"
	"github.com/coreman2200/funtimes-sensehat/internal/pattern"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

var rootCmd = &cobra.Command{
	Use:               "sensehat",
	Short:             "drive the Sense HAT LED matrix and sensors",
	Long:              "sensehat draws on the Sense HAT LED matrix and reads its humidity and pressure sensors.\nWithout a command it clears the matrix, draws a gradient and prints one sensor reading.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              demo,
}

var (
	configFlag   string
	logLevelFlag string
	deviceFlag   string

	cfg *config.Config
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().StringVar(&configFlag, `config`, config.Path(), `settings file`)
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, `log-level`, ``, `trace, debug, info, warn or error`)
	rootCmd.PersistentFlags().StringVar(&deviceFlag, `device`, ``, `matrix device node, skips discovery (e.g. /dev/fb1)`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the settings file and applies flag overrides before any
// command runs.
func setup(cmd *cobra.Command, args []string) error {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	c, err := config.Load(configFlag)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", configFlag).Msg("no settings file, using defaults")
		c = config.Default()
	case err != nil:
		log.Warn().Err(err).Str("path", configFlag).Msg("settings load failed; proceeding with defaults")
		c = config.Default()
	}
	c.LogLevel = firstNonZero(logLevelFlag, c.LogLevel)
	c.Matrix.Device = firstNonZero(deviceFlag, c.Matrix.Device)

	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	cfg = c
	return nil
}

// demo prepares the matrix, draws the gradient and prints each sensor once.
func demo(cmd *cobra.Command, args []string) error {
	m, err := app.OpenMatrix(cfg.Matrix)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Draw(m.Bounds(), pattern.Gradient(), image.Point{}); err != nil {
		return err
	}

	h, p, bus, err := app.OpenSensors(cfg.Sensors)
	if err != nil {
		return err
	}
	defer bus.Close()
	defer p.Close()
	defer h.Close()
	fmt.Fprintln(cmd.OutOrStdout(), sensor.Take(h, p))
	return nil
}

func closeDrawer(d any) {
	if c, ok := d.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, ledmatrix.ErrClosed) {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func firstNonZero(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
