package diagnostics

import (
	"errors"
	"io/fs"

	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromError classifies err from the matrix or sensor packages.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: Err, Code: "GENERIC", Summary: "Operation failed", Detail: err.Error()}

	var re *ledmatrix.RangeError
	switch {
	case errors.As(err, &re):
		d.Severity = Warn
		d.Code = "MATRIX.RANGE"
		d.Summary = "Pixel outside the 8x8 grid"
		d.Evidence = map[string]any{"row": re.Row, "col": re.Col, "offset": re.Offset}
	case errors.Is(err, ledmatrix.ErrNotFound):
		d.Code = "MATRIX.NOT_FOUND"
		d.Summary = "No Sense HAT framebuffer found"
		d.LikelyCauses = []string{"HAT not seated", "rpisense-fb overlay not loaded"}
		d.SuggestedFixes = []string{"add dtoverlay=rpi-sense to config.txt", "set matrix.device in the config file"}
	case errors.Is(err, ledmatrix.ErrEnumeration):
		d.Code = "MATRIX.ENUM"
		d.Summary = "Cannot list framebuffer devices"
		d.LikelyCauses = []string{"sysfs not mounted", "running in a container without /sys"}
	case errors.Is(err, ledmatrix.ErrClosed):
		d.Code = "MATRIX.CLOSED"
		d.Summary = "Matrix already released"
	case errors.Is(err, fs.ErrPermission):
		d.Code = "MATRIX.PERMISSION"
		d.Summary = "Permission denied on device"
		d.SuggestedFixes = []string{"add the user to the video group"}
	case errors.Is(err, sensor.ErrNotInitialized):
		d.Code = "SENSOR.NOT_READY"
		d.Summary = "Sensor read before initialisation"
	case errors.Is(err, sensor.ErrInit):
		d.Code = "SENSOR.INIT"
		d.Summary = "Sensor initialisation failed"
		d.LikelyCauses = []string{"I2C disabled", "wrong chip type or address in settings"}
		d.SuggestedFixes = []string{"enable I2C with raspi-config", "check sensors.* in the config file"}
	case errors.Is(err, sensor.ErrUnknownChip):
		d.Code = "SENSOR.CHIP"
		d.Summary = "Unknown sensor chip in settings"
	}
	return d
}
