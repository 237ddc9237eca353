// Package refgen produces golden window coefficients for the window package
// tests. Coefficients come from gonum's dsp/window so the fixtures do not
// share code with the implementation they check.
package refgen

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	gonumwindow "gonum.org/v1/gonum/dsp/window"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLength matches the reference length embedded in the window tests
	DefaultLength = 8

	valuesPerLine = 4
)

var ErrInvalidLength = errors.New("reference length must be at least 1")

// Options selects which vectors to generate
type Options struct {
	Types    []window.Type
	Length   int
	Symmetry window.Symmetry
}

// DefaultOptions returns every window type at the reference length, periodic
func DefaultOptions() Options {
	return Options{
		Types:    window.Types(),
		Length:   DefaultLength,
		Symmetry: window.Periodic,
	}
}

// Vector is one generated coefficient sequence
type Vector struct {
	Name   string      `yaml:"name"`
	Spec   window.Spec `yaml:"spec"`
	Values []float64   `yaml:"values"`
}

// Generate computes a vector for each requested type
func Generate(opts Options) ([]Vector, error) {
	if opts.Length < 1 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidLength, opts.Length)
	}

	types := opts.Types
	if len(types) == 0 {
		types = window.Types()
	}

	vectors := make([]Vector, 0, len(types))
	for _, t := range types {
		spec := window.Spec{Type: t, Length: opts.Length, Symmetry: opts.Symmetry}

		values, err := coefficients(spec)
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, Vector{
			Name:   VariableName(spec),
			Spec:   spec,
			Values: values,
		})
	}

	return vectors, nil
}

func coefficients(spec window.Spec) ([]float64, error) {
	if spec.Length == 1 {
		return []float64{1}, nil
	}

	n := spec.Length
	switch spec.Symmetry {
	case window.Symmetric:
	case window.Periodic:
		n++
	default:
		return nil, fmt.Errorf("%w: %d", window.ErrUnknownSymmetry, uint8(spec.Symmetry))
	}

	seq := make([]float64, n)
	for i := range seq {
		seq[i] = 1
	}

	switch spec.Type {
	case window.Hann:
		seq = gonumwindow.Hann(seq)
	case window.Hamming:
		seq = gonumwindow.Hamming(seq)
	case window.Blackman:
		seq = gonumwindow.Blackman(seq)
	case window.BlackmanHarris:
		seq = gonumwindow.BlackmanHarris(seq)
	default:
		return nil, &window.UnsupportedWindowTypeError{Type: spec.Type}
	}

	return seq[:spec.Length], nil
}

// VariableName returns the Go identifier used for spec in generated test code,
// e.g. expectedBlackmanHarrisWindow8
func VariableName(spec window.Spec) string {
	words := strings.ReplaceAll(spec.Type.String(), "_", " ")
	title := cases.Title(language.English).String(words)
	return fmt.Sprintf("expected%sWindow%d", strings.ReplaceAll(title, " ", ""), spec.Length)
}

// WriteGo prints vectors as float32 slice literals, four values per line
func WriteGo(w io.Writer, vectors []Vector) error {
	var b strings.Builder
	for i, v := range vectors {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "var %s = []float32{\n", v.Name)
		for j := 0; j < len(v.Values); j += valuesPerLine {
			end := min(j+valuesPerLine, len(v.Values))
			line := make([]string, 0, valuesPerLine)
			for _, value := range v.Values[j:end] {
				line = append(line, fmt.Sprintf("%.7f", value))
			}
			fmt.Fprintf(&b, "\t%s,\n", strings.Join(line, ", "))
		}
		b.WriteString("}\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteYAML prints vectors as a YAML document
func WriteYAML(w io.Writer, vectors []Vector) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(vectors); err != nil {
		return fmt.Errorf("failed to encode reference vectors: %w", err)
	}
	return encoder.Close()
}
