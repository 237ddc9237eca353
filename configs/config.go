package configs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RyanBlaney/spectro/internal/spectrum"
	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/spf13/viper"
)

// MaxPrecision bounds output.precision
const MaxPrecision = 15

// ErrUnknownPreset is returned for an FFT preset name that does not exist
var ErrUnknownPreset = errors.New("unknown fft preset")

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Window table configuration
	Window WindowConfig `mapstructure:"window"`

	// Audio input configuration
	Audio AudioConfig `mapstructure:"audio"`

	// FFT configuration
	FFT FFTConfig `mapstructure:"fft"`

	// Decibel aperture
	Display DisplayConfig `mapstructure:"display"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// WindowConfig contains window table settings
type WindowConfig struct {
	Type      string        `mapstructure:"type"`
	Symmetry  string        `mapstructure:"symmetry"`
	MaxLength int           `mapstructure:"max_length"`
	Prewarm   []PrewarmSpec `mapstructure:"prewarm"`
}

// PrewarmSpec names an extra window computed before the table is frozen
type PrewarmSpec struct {
	Type     string `mapstructure:"type"`
	Length   int    `mapstructure:"length"`
	Symmetry string `mapstructure:"symmetry"`
}

// AudioConfig contains audio input settings
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

// FFTConfig contains transform settings
type FFTConfig struct {
	Size        int    `mapstructure:"size"`
	WindowScale int    `mapstructure:"window_scale"`
	Backend     string `mapstructure:"backend"`
}

// DisplayConfig contains the decibel aperture spectra are clamped to
type DisplayConfig struct {
	MinDecibels float32 `mapstructure:"min_decibels"`
	MaxDecibels float32 `mapstructure:"max_decibels"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	// Decimal places of the floating point report values
	Precision int `mapstructure:"precision"`
	// Adds the window block and the generation time to reports
	IncludeMetadata bool `mapstructure:"include_metadata"`
	// Adds the start time of every frame to verbose reports
	Timestamps bool `mapstructure:"timestamps"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom fills unset keys with defaults and decodes v
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if _, err := window.ParseType(config.Window.Type); err != nil {
		return fmt.Errorf("window type: %w", err)
	}

	if _, err := window.ParseSymmetry(config.Window.Symmetry); err != nil {
		return fmt.Errorf("window symmetry: %w", err)
	}

	if config.Window.MaxLength < 0 {
		return fmt.Errorf("window max length cannot be negative")
	}

	for i, spec := range config.Window.Prewarm {
		if _, err := window.NewSpec(spec.Type, spec.Length, spec.Symmetry); err != nil {
			return fmt.Errorf("prewarm entry %d: %w", i, err)
		}
		if spec.Length < 1 {
			return fmt.Errorf("prewarm entry %d: length must be positive", i)
		}
	}

	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.Channels <= 0 {
		return fmt.Errorf("audio channels must be positive")
	}

	if !fft.IsPowerOfTwo(config.FFT.Size) {
		return fmt.Errorf("fft size must be a power of 2, got: %d", config.FFT.Size)
	}

	if config.FFT.WindowScale < 1 || config.FFT.WindowScale > config.FFT.Size {
		return fmt.Errorf("fft window scale must be between 1 and %d", config.FFT.Size)
	}

	if _, err := fft.ParseBackend(config.FFT.Backend); err != nil {
		return err
	}

	if config.Display.MinDecibels >= config.Display.MaxDecibels {
		return fmt.Errorf("display min decibels must be below max decibels")
	}

	if config.Output.Precision < 0 || config.Output.Precision > MaxPrecision {
		return fmt.Errorf("output precision must be between 0 and %d, got: %d", MaxPrecision, config.Output.Precision)
	}

	switch strings.ToLower(config.OutputFormat) {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("unsupported output format: %s", config.OutputFormat)
	}

	return nil
}

// ApplyFFTPreset replaces the transform size and window scale with those of
// a named preset. The configured backend is kept.
func (c *Config) ApplyFFTPreset(name string) error {
	preset, err := GetFFTPreset(name)
	if err != nil {
		return err
	}
	c.FFT.Size = preset.Size
	c.FFT.WindowScale = preset.WindowScale
	return nil
}

// SpectrumConfig converts the validated configuration into pipeline settings
func (c *Config) SpectrumConfig() (spectrum.Config, error) {
	windowType, err := window.ParseType(c.Window.Type)
	if err != nil {
		return spectrum.Config{}, err
	}
	symmetry, err := window.ParseSymmetry(c.Window.Symmetry)
	if err != nil {
		return spectrum.Config{}, err
	}
	backend, err := fft.ParseBackend(c.FFT.Backend)
	if err != nil {
		return spectrum.Config{}, err
	}

	extra := make([]window.Spec, 0, len(c.Window.Prewarm))
	for _, p := range c.Window.Prewarm {
		spec, err := window.NewSpec(p.Type, p.Length, p.Symmetry)
		if err != nil {
			return spectrum.Config{}, err
		}
		extra = append(extra, spec)
	}

	return spectrum.Config{
		SampleRate:      c.Audio.SampleRate,
		Channels:        c.Audio.Channels,
		FFTSize:         c.FFT.Size,
		WindowScale:     c.FFT.WindowScale,
		Window:          windowType,
		Symmetry:        symmetry,
		Backend:         backend,
		MinDecibels:     c.Display.MinDecibels,
		MaxDecibels:     c.Display.MaxDecibels,
		MaxWindowLength: c.Window.MaxLength,
		ExtraSpecs:      extra,
	}, nil
}
