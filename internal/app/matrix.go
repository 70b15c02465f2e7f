package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/funtimes-sensehat/internal/config"
	"github.com/coreman2200/funtimes-sensehat/internal/preview"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
)

// DevicePath resolves the matrix node: an explicit device wins, otherwise
// the framebuffer class directory is scanned.
func DevicePath(cfg config.Matrix) (string, error) {
	if cfg.Device != "" {
		return cfg.Device, nil
	}
	path, found, err := ledmatrix.Locator{ClassDir: cfg.ClassDir, Name: cfg.Name}.Find()
	if err != nil {
		return "", err
	}
	if !found {
		return "", ledmatrix.ErrNotFound
	}
	return path, nil
}

// OpenMatrix locates, opens and clears the LED matrix.
func OpenMatrix(cfg config.Matrix) (*ledmatrix.Matrix, error) {
	path, err := DevicePath(cfg)
	if err != nil {
		return nil, err
	}
	m, err := ledmatrix.Open(path)
	if err != nil {
		return nil, err
	}
	if err := m.Clear(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("clear %s: %w", path, err)
	}
	log.Info().Str("device", path).Msg("led matrix ready")
	return m, nil
}

// OpenDrawer returns the matrix, or a console preview when no matrix is
// attached. Other failures are returned as is.
func OpenDrawer(cfg config.Matrix) (display.Drawer, error) {
	m, err := OpenMatrix(cfg)
	if errors.Is(err, ledmatrix.ErrNotFound) {
		log.Warn().Msg("no led matrix found, printing at the console")
		return preview.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
