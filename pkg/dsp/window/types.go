// Package window generates and caches window coefficient sequences for
// spectral analysis frames.
package window

import (
	"fmt"
	"strings"
)

// Type represents a window function type. The set is closed.
type Type uint8

const (
	Hann Type = iota
	Hamming
	Blackman
	BlackmanHarris
)

// Types returns every supported window type in reference order
func Types() []Type {
	return []Type{Hann, Hamming, Blackman, BlackmanHarris}
}

func (t Type) String() string {
	switch t {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackman_harris"
	default:
		return fmt.Sprintf("window_type(%d)", uint8(t))
	}
}

// valid reports whether t is one of the supported window types
func (t Type) valid() bool {
	return t <= BlackmanHarris
}

// ParseType maps a configuration name to a window type
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackman_harris", "blackmanharris", "blackman-harris":
		return BlackmanHarris, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}
}

// Symmetry selects between the filter-design and spectral-analysis conventions
type Symmetry uint8

const (
	// Symmetric windows mirror about the center sample
	Symmetric Symmetry = iota
	// Periodic windows are a symmetric window of length N+1 with the last sample dropped
	Periodic
)

func (s Symmetry) String() string {
	switch s {
	case Symmetric:
		return "symmetric"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("symmetry(%d)", uint8(s))
	}
}

// ParseSymmetry maps a configuration name to a symmetry mode
func ParseSymmetry(name string) (Symmetry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "symmetric", "sym":
		return Symmetric, nil
	case "periodic", "fftbins", "dft-even":
		return Periodic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymmetry, name)
	}
}

// Spec identifies one coefficient sequence. Two specs are equal iff all
// fields are equal, so Spec is used directly as a cache key.
type Spec struct {
	Type     Type     `json:"type" yaml:"type"`
	Length   int      `json:"length" yaml:"length"`
	Symmetry Symmetry `json:"symmetry" yaml:"symmetry"`
}

// NewSpec builds a spec from configuration strings
func NewSpec(windowType string, length int, symmetry string) (Spec, error) {
	t, err := ParseType(windowType)
	if err != nil {
		return Spec{}, err
	}
	s, err := ParseSymmetry(symmetry)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Type: t, Length: length, Symmetry: s}, nil
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%d/%s", s.Type, s.Length, s.Symmetry)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, &UnsupportedWindowTypeError{Type: t}
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (s Symmetry) MarshalText() ([]byte, error) {
	if s > Periodic {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSymmetry, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Symmetry) UnmarshalText(text []byte) error {
	parsed, err := ParseSymmetry(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
