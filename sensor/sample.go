package sensor

import (
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sample is one reading of both sensors in plain units. Fields the chips did
// not report are nil.
type Sample struct {
	Time                time.Time `json:"time"`
	HumidityRH          *float64  `json:"humidity_rh,omitempty"`
	HumidityTemperature *float64  `json:"humidity_temp_c,omitempty"`
	PressureHPa         *float64  `json:"pressure_hpa,omitempty"`
	PressureTemperature *float64  `json:"pressure_temp_c,omitempty"`
	Errors              []string  `json:"errors,omitempty"`
}

// Take reads h and p; either may be nil. Read errors are collected in the
// sample instead of aborting it.
func Take(h *HumiditySensor, p *PressureSensor) Sample {
	s := Sample{Time: time.Now()}
	if h != nil {
		if r, err := h.Read(); err != nil {
			s.Errors = append(s.Errors, err.Error())
		} else {
			if r.HumidityValid {
				s.HumidityRH = ptr(float64(r.Humidity) / float64(physic.PercentRH))
			}
			if r.TemperatureValid {
				s.HumidityTemperature = ptr(toCelsius(r.Temperature))
			}
		}
	}
	if p != nil {
		if r, err := p.Read(); err != nil {
			s.Errors = append(s.Errors, err.Error())
		} else {
			if r.PressureValid {
				s.PressureHPa = ptr(float64(r.Pressure) / float64(100*physic.Pascal))
			}
			if r.TemperatureValid {
				s.PressureTemperature = ptr(toCelsius(r.Temperature))
			}
		}
	}
	return s
}

// Lines formats the sample the way the sense command prints it.
func (s Sample) Lines() []string {
	var out []string
	if s.HumidityRH != nil {
		out = append(out, fmt.Sprintf("Humidity: %.2f %%RH", *s.HumidityRH))
	}
	if s.HumidityTemperature != nil {
		out = append(out, fmt.Sprintf("Temperature (humidity): %.2f°C", *s.HumidityTemperature))
	}
	if s.PressureHPa != nil {
		out = append(out, fmt.Sprintf("Pressure: %.2f hPa", *s.PressureHPa))
	}
	if s.PressureTemperature != nil {
		out = append(out, fmt.Sprintf("Temperature (pressure): %.2f°C", *s.PressureTemperature))
	}
	return out
}

func (s Sample) String() string { return strings.Join(s.Lines(), "\n") }

func toCelsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

func ptr(f float64) *float64 { return &f }
