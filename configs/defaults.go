package configs

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}

	// Window defaults
	if !v.IsSet("window.type") {
		v.Set("window.type", "hann")
	}
	if !v.IsSet("window.symmetry") {
		v.Set("window.symmetry", "periodic")
	}
	if !v.IsSet("window.max_length") {
		v.Set("window.max_length", window.DefaultMaxLength)
	}

	// Audio defaults
	if !v.IsSet("audio.sample_rate") {
		v.Set("audio.sample_rate", 44100)
	}
	if !v.IsSet("audio.channels") {
		v.Set("audio.channels", 1)
	}

	// FFT defaults
	if !v.IsSet("fft.size") {
		v.Set("fft.size", 2048)
	}
	if !v.IsSet("fft.window_scale") {
		v.Set("fft.window_scale", 2)
	}
	if !v.IsSet("fft.backend") {
		v.Set("fft.backend", "gonum")
	}

	// Display defaults
	if !v.IsSet("display.min_decibels") {
		v.Set("display.min_decibels", -30.0)
	}
	if !v.IsSet("display.max_decibels") {
		v.Set("display.max_decibels", 30.0)
	}

	// Output defaults
	if !v.IsSet("output.precision") {
		v.Set("output.precision", 3)
	}
	if !v.IsSet("output.include_metadata") {
		v.Set("output.include_metadata", true)
	}
	if !v.IsSet("output.timestamps") {
		v.Set("output.timestamps", false)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		Window:       GetDefaultWindowConfig(),
		Audio:        GetDefaultAudioConfig(),
		FFT:          GetDefaultFFTConfig(),
		Display:      GetDefaultDisplayConfig(),
		Output:       GetDefaultOutputConfig(),
	}
}

// GetDefaultWindowConfig returns default window table settings
func GetDefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Type:      "hann",
		Symmetry:  "periodic",
		MaxLength: window.DefaultMaxLength,
	}
}

// GetDefaultAudioConfig returns default audio input settings
func GetDefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Channels:   1,
	}
}

// GetDefaultFFTConfig returns default transform settings
func GetDefaultFFTConfig() FFTConfig {
	return FFTConfig{
		Size:        2048,
		WindowScale: 2,
		Backend:     "gonum",
	}
}

// GetDefaultDisplayConfig returns the default -30..30 dB aperture
func GetDefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MinDecibels: -30,
		MaxDecibels: 30,
	}
}

// GetDefaultOutputConfig returns default output formatting settings
func GetDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Precision:       3,
		IncludeMetadata: true,
		Timestamps:      false,
	}
}

// FFT presets selectable with --preset
const (
	PresetDefault        = "default"
	PresetHighResolution = "high_resolution"
	PresetLowLatency     = "low_latency"
)

// HighResolutionFFTConfig trades latency for frequency resolution
func HighResolutionFFTConfig() FFTConfig {
	return FFTConfig{
		Size:        8192,
		WindowScale: 4,
		Backend:     "gonum",
	}
}

// LowLatencyFFTConfig returns small frames with 75% overlap
func LowLatencyFFTConfig() FFTConfig {
	return FFTConfig{
		Size:        512,
		WindowScale: 4,
		Backend:     "gonum",
	}
}

// GetFFTPreset returns the transform settings of a named preset
func GetFFTPreset(name string) (FFTConfig, error) {
	switch strings.ToLower(name) {
	case PresetDefault:
		return GetDefaultFFTConfig(), nil
	case PresetHighResolution:
		return HighResolutionFFTConfig(), nil
	case PresetLowLatency:
		return LowLatencyFFTConfig(), nil
	default:
		return FFTConfig{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
}
