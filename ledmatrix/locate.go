package ledmatrix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DeviceName is the identifier the Sense HAT framebuffer driver reports
	// in its sysfs name attribute.
	DeviceName = "RPi-Sense FB"

	DefaultClassDir = "/sys/class/graphics"
	DefaultDevDir   = "/dev"

	candidatePattern = "fb*"
	nameAttribute    = "name"
)

// Locator finds the device node of the LED matrix among the framebuffer
// class entries. The zero value uses the system defaults.
type Locator struct {
	// ClassDir holds one entry per framebuffer, e.g. /sys/class/graphics/fb1.
	ClassDir string
	// DevDir is where device nodes are created, e.g. /dev/fb1.
	DevDir string
	// Name is the identifier to match after trimming whitespace.
	Name string
}

// FindDevice looks up the matrix with the default Locator.
func FindDevice() (path string, found bool, err error) {
	return Locator{}.Find()
}

// Find scans the class directory and returns the device node of the first
// entry whose name attribute matches. A missing matrix is not an error:
// found is false and err is nil. err is only set when the class directory
// itself cannot be listed.
func (l Locator) Find() (path string, found bool, err error) {
	l = l.withDefaults()

	entries, err := os.ReadDir(l.ClassDir)
	if err != nil {
		log.Error().Err(err).Str("dir", l.ClassDir).Msg("cannot read framebuffer class directory")
		return "", false, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}

	for _, e := range entries {
		if ok, _ := filepath.Match(candidatePattern, e.Name()); !ok {
			continue
		}
		entry := filepath.Join(l.ClassDir, e.Name())
		b, err := os.ReadFile(filepath.Join(entry, nameAttribute))
		if err != nil {
			log.Debug().Err(err).Str("entry", entry).Msg("skipping framebuffer")
			continue
		}
		if strings.TrimSpace(string(b)) != l.Name {
			continue
		}
		path = filepath.Join(l.DevDir, filepath.Base(entry))
		log.Debug().Str("entry", entry).Str("path", path).Msg("found led matrix")
		return path, true, nil
	}
	return "", false, nil
}

func (l Locator) withDefaults() Locator {
	if l.ClassDir == "" {
		l.ClassDir = DefaultClassDir
	}
	if l.DevDir == "" {
		l.DevDir = DefaultDevDir
	}
	if l.Name == "" {
		l.Name = DeviceName
	}
	return l
}
