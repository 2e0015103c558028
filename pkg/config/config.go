// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/ftvideo/pkg/ports"
)

// Environment variables read by ApplyEnv.
const (
	EnvHost     = "FT_DISPLAY"
	EnvGeometry = "FT_GEOMETRY"
	EnvLayer    = "FT_LAYER"
)

// MaxLayer is the highest display layer.
const MaxLayer = 15

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the full configuration for ftvideo.
type Config struct {
	// Display
	Host     string `yaml:"host"`
	Geometry string `yaml:"geometry"`
	// Layer overrides the layer given in Geometry when set.
	Layer *int `yaml:"layer"`

	// Playback
	Repeat       float64 `yaml:"repeat"` // seconds, 0 plays once
	Clear        bool    `yaml:"clear"`
	DriftCorrect bool    `yaml:"drift_correct"`
	Verbosity    int     `yaml:"verbose"`

	// Decoding
	Backend     string `yaml:"backend"`
	Scaler      string `yaml:"scaler"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	LibavLog    bool   `yaml:"libav_log"`

	// Output
	LogFormat   string `yaml:"log_format"`
	DebugDir    string `yaml:"debug_dir"`
	DebugFormat string `yaml:"debug_format"`
	Summary     string `yaml:"summary"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Geometry:  "45x35+0+0",
		Backend:   "auto",
		Scaler:    "bilinear",
		LogFormat: "console",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides host, geometry and layer from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := getenv(EnvGeometry); v != "" {
		c.Geometry = v
	}
	if v := getenv(EnvLayer); v != "" {
		layer, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvLayer, v)
		}
		c.Layer = &layer
	}
	return nil
}

// SetLayer sets the layer override.
func (c *Config) SetLayer(layer int) {
	c.Layer = &layer
}

// Display resolves geometry and layer override into the display area.
func (c Config) Display() (Geometry, error) {
	g, err := ParseGeometry(c.Geometry)
	if err != nil {
		return Geometry{}, err
	}
	if c.Layer != nil {
		g.Layer = *c.Layer
	}
	return g, nil
}

// RepeatTimeout returns Repeat as a duration. Values beyond the range of
// time.Duration saturate at its maximum, which repeats for ~292 years.
func (c Config) RepeatTimeout() time.Duration {
	ns := c.Repeat * float64(time.Second)
	if ns >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// Validate checks every field that can be checked without I/O.
func (c Config) Validate() error {
	g, err := c.Display()
	if err != nil {
		return err
	}
	if g.Layer < 0 || g.Layer > MaxLayer {
		return fmt.Errorf("%w: layer %d not in 0..%d", ErrInvalid, g.Layer, MaxLayer)
	}
	if c.Repeat < 0 || math.IsNaN(c.Repeat) || math.IsInf(c.Repeat, 0) {
		return fmt.Errorf("%w: repeat timeout %v", ErrInvalid, c.Repeat)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("%w: verbosity %d", ErrInvalid, c.Verbosity)
	}
	if !oneOf(c.Backend, "auto", "libav", "ffmpeg") {
		return fmt.Errorf("%w: backend %q (want auto, libav or ffmpeg)", ErrInvalid, c.Backend)
	}
	if !oneOf(c.Scaler, "", "nearest", "bilinear", "catmullrom") {
		return fmt.Errorf("%w: scaler %q (want nearest, bilinear or catmullrom)", ErrInvalid, c.Scaler)
	}
	if !oneOf(c.DebugFormat, "", "png", "jpeg", "jpg") {
		return fmt.Errorf("%w: debug format %q (want png or jpeg)", ErrInvalid, c.DebugFormat)
	}
	if !oneOf(c.LogFormat, "console", "json") {
		return fmt.Errorf("%w: log format %q (want console or json)", ErrInvalid, c.LogFormat)
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
