package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rkoesters/xdg/basedir"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-sensehat/sensor"
)

const (
	dirName  = "sense_hat"
	fileName = "sensehat.yaml"
)

type Matrix struct {
	Device   string `yaml:"device,omitempty"`    // e.g. /dev/fb1; skips discovery
	ClassDir string `yaml:"class_dir,omitempty"` // e.g. /sys/class/graphics
	Name     string `yaml:"name,omitempty"`      // e.g. RPi-Sense FB
}

type Server struct {
	Addr          string `yaml:"addr"`
	EnvIntervalMs int    `yaml:"env_interval_ms"`
}

type Config struct {
	LogLevel string          `yaml:"log_level"`
	Matrix   Matrix          `yaml:"matrix"`
	Sensors  sensor.Settings `yaml:"sensors"`
	Server   Server          `yaml:"server"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Sensors:  sensor.DefaultSettings(),
		Server: Server{
			Addr:          ":8080",
			EnvIntervalMs: 1000,
		},
	}
}

// EnvInterval is the sensor polling period of the server.
func (c *Config) EnvInterval() time.Duration {
	if c.Server.EnvIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Server.EnvIntervalMs) * time.Millisecond
}

// Path is the settings file under the XDG config home, next to the
// RTIMULib settings of the Sense HAT tools.
func Path() string {
	return filepath.Join(basedir.ConfigHome, dirName, fileName)
}

// EnsureDir creates the directory holding path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Load reads path over the defaults; keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
