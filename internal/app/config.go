package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/spectro/internal/spectrum"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"gopkg.in/yaml.v3"
)

// Profile describes a synthesized analysis run. Zero values keep the
// settings from the application configuration.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// Channels overrides audio.channels
	Channels int `json:"channels,omitempty" yaml:"channels,omitempty"`

	// ToneFrequencies assigns a sine frequency in Hz to each channel,
	// cycling when there are more channels than frequencies
	ToneFrequencies []float64 `json:"tone_frequencies" yaml:"tone_frequencies"`
	Amplitude       float64   `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`

	// Prewarm lists extra windows to compute before the table is frozen
	Prewarm []window.Spec `json:"prewarm,omitempty" yaml:"prewarm,omitempty"`
}

// Validate checks the profile for values that cannot be synthesized
func (p *Profile) Validate() error {
	if p.Channels < 0 {
		return fmt.Errorf("profile channels cannot be negative")
	}
	for i, f := range p.ToneFrequencies {
		if f <= 0 {
			return fmt.Errorf("tone frequency %d must be positive, got: %v", i, f)
		}
	}
	if p.Amplitude < 0 {
		return fmt.Errorf("profile amplitude cannot be negative")
	}
	if p.DurationSeconds < 0 {
		return fmt.Errorf("profile duration cannot be negative")
	}
	for i, spec := range p.Prewarm {
		if spec.Length < 1 {
			return fmt.Errorf("prewarm entry %d: length must be positive", i)
		}
	}
	return nil
}

// apply merges the profile into the pipeline configuration
func (p *Profile) apply(cfg *spectrum.Config) {
	if p.Channels > 0 {
		cfg.Channels = p.Channels
	}
	cfg.ExtraSpecs = append(cfg.ExtraSpecs, p.Prewarm...)
}

// loadProfileFromFile loads an analysis profile from a YAML or JSON file
func loadProfileFromFile(filePath string) (*Profile, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("profile file does not exist: %s", filePath)
	}

	// Determine file format
	ext := filepath.Ext(filePath)
	switch ext {
	case ".yaml", ".yml":
		return loadProfileFromYAML(filePath)
	case ".json":
		return loadProfileFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if profile, err := loadProfileFromYAML(filePath); err == nil {
			return profile, nil
		}
		return loadProfileFromJSON(filePath)
	}
}

// loadProfileFromYAML loads a profile from a YAML file
func loadProfileFromYAML(filePath string) (*Profile, error) {
	data, err := readProfileFile(filePath)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile: %w", err)
	}

	return &profile, nil
}

// loadProfileFromJSON loads a profile from a JSON file
func loadProfileFromJSON(filePath string) (*Profile, error) {
	data, err := readProfileFile(filePath)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse JSON profile: %w", err)
	}

	return &profile, nil
}

func readProfileFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return data, nil
}
