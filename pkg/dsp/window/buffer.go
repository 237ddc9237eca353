package window

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Buffer is an immutable coefficient sequence produced by a Table.
// It is safe for concurrent reads without locking.
type Buffer struct {
	spec         Spec
	coefficients []float32
	coherentGain float64
	enbw         float64
}

// newBuffer rounds the double precision values to single precision storage
// and precomputes the window metrics
func newBuffer(spec Spec, values []float64) *Buffer {
	coefficients := make([]float32, len(values))
	for i, v := range values {
		coefficients[i] = float32(v)
	}

	n := float64(len(values))
	sum := floats.Sum(values)
	sumSquares := floats.Dot(values, values)

	b := &Buffer{
		spec:         spec,
		coefficients: coefficients,
		coherentGain: sum / n,
	}
	if sum != 0 {
		b.enbw = n * sumSquares / (sum * sum)
	}
	return b
}

// Spec returns the spec the buffer was generated for
func (b *Buffer) Spec() Spec {
	return b.spec
}

// Len returns the number of coefficients
func (b *Buffer) Len() int {
	return len(b.coefficients)
}

// At returns coefficient i
func (b *Buffer) At(i int) float32 {
	return b.coefficients[i]
}

// Values returns a copy of the coefficients
func (b *Buffer) Values() []float32 {
	values := make([]float32, len(b.coefficients))
	copy(values, b.coefficients)
	return values
}

// Apply writes src multiplied element-wise by the window into dst.
// dst and src may be the same slice. It does not allocate.
func (b *Buffer) Apply(dst, src []float32) error {
	if len(src) != len(b.coefficients) || len(dst) != len(b.coefficients) {
		return fmt.Errorf("%w: window %d, src %d, dst %d",
			ErrLengthMismatch, len(b.coefficients), len(src), len(dst))
	}

	for i, c := range b.coefficients {
		dst[i] = src[i] * c
	}
	return nil
}

// ApplyInPlace applies the window to frame in-place
func (b *Buffer) ApplyInPlace(frame []float32) error {
	return b.Apply(frame, frame)
}

// CoherentGain returns the mean coefficient value
func (b *Buffer) CoherentGain() float64 {
	return b.coherentGain
}

// ENBW returns the equivalent noise bandwidth in bins, or 0 for an all-zero window
func (b *Buffer) ENBW() float64 {
	return b.enbw
}
