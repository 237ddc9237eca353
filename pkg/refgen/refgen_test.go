package refgen

import (
	"bytes"
	"testing"

	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateDefaults(t *testing.T) {
	vectors, err := Generate(DefaultOptions())
	require.NoError(t, err)
	require.Len(t, vectors, 4)

	names := make([]string, 0, len(vectors))
	for _, v := range vectors {
		names = append(names, v.Name)
		assert.Len(t, v.Values, DefaultLength)
		assert.Equal(t, window.Periodic, v.Spec.Symmetry)
	}
	assert.Equal(t, []string{
		"expectedHannWindow8",
		"expectedHammingWindow8",
		"expectedBlackmanWindow8",
		"expectedBlackmanHarrisWindow8",
	}, names)

	assert.InDeltaSlice(t,
		[]float64{0, 0.1464466, 0.5, 0.8535534, 1, 0.8535534, 0.5, 0.1464466},
		vectors[0].Values, 1e-7)
	assert.InDeltaSlice(t,
		[]float64{0.00006, 0.0217358, 0.21747, 0.6957642, 1, 0.6957642, 0.21747, 0.0217358},
		vectors[3].Values, 1e-7)
}

func TestGenerateAgreesWithTable(t *testing.T) {
	table := window.NewTable()

	for _, symmetry := range []window.Symmetry{window.Symmetric, window.Periodic} {
		for _, length := range []int{1, 2, 5, 8, 33, 512} {
			vectors, err := Generate(Options{Length: length, Symmetry: symmetry})
			require.NoError(t, err)

			for _, v := range vectors {
				buf, err := table.GetOrCompute(v.Spec)
				require.NoError(t, err)
				for i, want := range v.Values {
					assert.InDelta(t, want, buf.At(i), 1e-6, "%s[%d]", v.Spec, i)
				}
			}
		}
	}
}

func TestGenerateInvalid(t *testing.T) {
	_, err := Generate(Options{Length: 0})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = Generate(Options{Length: 8, Symmetry: window.Symmetry(7)})
	assert.ErrorIs(t, err, window.ErrUnknownSymmetry)

	_, err = Generate(Options{Types: []window.Type{window.Type(9)}, Length: 8})
	var unsupported *window.UnsupportedWindowTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestVariableName(t *testing.T) {
	assert.Equal(t, "expectedHannWindow8", VariableName(window.Spec{Type: window.Hann, Length: 8}))
	assert.Equal(t, "expectedBlackmanHarrisWindow1024",
		VariableName(window.Spec{Type: window.BlackmanHarris, Length: 1024}))
}

func TestWriteGo(t *testing.T) {
	vectors, err := Generate(Options{
		Types:    []window.Type{window.Hann, window.Blackman},
		Length:   8,
		Symmetry: window.Periodic,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGo(&buf, vectors))

	want := `var expectedHannWindow8 = []float32{
	0.0000000, 0.1464466, 0.5000000, 0.8535534,
	1.0000000, 0.8535534, 0.5000000, 0.1464466,
}

var expectedBlackmanWindow8 = []float32{
	-0.0000000, 0.0664466, 0.3400000, 0.7735534,
	1.0000000, 0.7735534, 0.3400000, 0.0664466,
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteGoPartialLine(t *testing.T) {
	vectors, err := Generate(Options{Types: []window.Type{window.Hann}, Length: 5, Symmetry: window.Symmetric})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGo(&buf, vectors))

	assert.Equal(t, `var expectedHannWindow5 = []float32{
	0.0000000, 0.5000000, 1.0000000, 0.5000000,
	0.0000000,
}
`, buf.String())
}

func TestWriteYAML(t *testing.T) {
	vectors, err := Generate(Options{Types: []window.Type{window.Hamming}, Length: 4, Symmetry: window.Periodic})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, vectors))
	assert.Contains(t, buf.String(), "name: expectedHammingWindow4")
	assert.Contains(t, buf.String(), "type: hamming")
	assert.Contains(t, buf.String(), "symmetry: periodic")

	var decoded []Vector
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, vectors[0].Spec, decoded[0].Spec)
	assert.InDeltaSlice(t, vectors[0].Values, decoded[0].Values, 1e-12)
}
