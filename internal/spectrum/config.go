package spectrum

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
)

var ErrInvalidConfig = errors.New("invalid spectrum configuration")

// Config describes the analysis performed on every channel
type Config struct {
	SampleRate  int             `json:"sample_rate" yaml:"sample_rate"`
	Channels    int             `json:"channels" yaml:"channels"`
	FFTSize     int             `json:"fft_size" yaml:"fft_size"`
	WindowScale int             `json:"window_scale" yaml:"window_scale"`
	Window      window.Type     `json:"window" yaml:"window"`
	Symmetry    window.Symmetry `json:"symmetry" yaml:"symmetry"`
	Backend     fft.Backend     `json:"backend" yaml:"backend"`
	MinDecibels float32         `json:"min_decibels" yaml:"min_decibels"`
	MaxDecibels float32         `json:"max_decibels" yaml:"max_decibels"`

	// MaxWindowLength bounds every pre-warmed spec; 0 uses the table default
	MaxWindowLength int `json:"max_window_length,omitempty" yaml:"max_window_length,omitempty"`

	// ExtraSpecs are pre-warmed alongside the analysis window
	ExtraSpecs []window.Spec `json:"extra_specs,omitempty" yaml:"extra_specs,omitempty"`
}

// DefaultConfig returns the analyzer defaults: periodic Hann over 2048-point
// frames with a -30..30 dB aperture
func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		Channels:    1,
		FFTSize:     2048,
		WindowScale: 2,
		Window:      window.Hann,
		Symmetry:    window.Periodic,
		Backend:     fft.BackendGonum,
		MinDecibels: -30,
		MaxDecibels: 30,
	}
}

// AnalysisSpec is the window spec applied to every frame
func (c Config) AnalysisSpec() window.Spec {
	return window.Spec{Type: c.Window, Length: c.FFTSize, Symmetry: c.Symmetry}
}

// WindowStride is the hop between consecutive frames in samples
func (c Config) WindowStride() int {
	if c.WindowScale <= 0 {
		return c.FFTSize
	}
	return c.FFTSize / c.WindowScale
}

// Validate checks the configuration before any allocation happens
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got: %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("%w: at least one channel required, got: %d", ErrInvalidConfig, c.Channels)
	}
	if !fft.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("%w: fft size %d: %w", ErrInvalidConfig, c.FFTSize, fft.ErrNotPowerOfTwo)
	}
	if c.WindowScale < 1 || c.WindowScale > c.FFTSize {
		return fmt.Errorf("%w: window scale must be between 1 and %d, got: %d", ErrInvalidConfig, c.FFTSize, c.WindowScale)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("%w: min decibels (%v) must be below max decibels (%v)",
			ErrInvalidConfig, c.MinDecibels, c.MaxDecibels)
	}
	return nil
}
