// Package stft computes spectrograms by sliding a window over buffered audio.
package stft

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
)

var (
	ErrWindowSizeMismatch = errors.New("window size must match FFT transform size")
	ErrInvalidStride      = errors.New("window stride must be greater than zero")
	ErrInvalidCount       = errors.New("window count must not be negative")
)

// Source yields samples on a timeline, zero outside the stored range
type Source interface {
	ReadPadded(dst []float32, start int64)
}

// Window is the element-wise weighting applied to each frame.
// *window.Buffer satisfies it.
type Window interface {
	Len() int
	Apply(dst, src []float32) error
}

// Processor computes spectrogram rows from a Source
type Processor struct {
	transformer fft.Transformer
	window      Window
	source      Source
	logger      logging.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithLogger overrides the processor logger
func WithLogger(logger logging.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor validates that the window covers exactly one transform frame
func NewProcessor(t fft.Transformer, w Window, src Source, opts ...Option) (*Processor, error) {
	if w.Len() != t.TransformSize() {
		return nil, fmt.Errorf("%w: window size %d, transform size %d",
			ErrWindowSizeMismatch, w.Len(), t.TransformSize())
	}

	p := &Processor{
		transformer: t,
		window:      w,
		source:      src,
		logger: logging.WithFields(logging.Fields{
			"component": "stft_processor",
		}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// ComputeSpectrogram returns count rows of transform magnitudes. Row i covers
// the samples starting at first + i*stride; samples outside the source are
// zero-padded.
func (p *Processor) ComputeSpectrogram(first int64, stride, count int) ([][]float32, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidStride, stride)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidCount, count)
	}

	size := p.window.Len()
	frame := make([]float32, size)
	spectrogram := make([][]float32, 0, count)

	for i := range count {
		start := first + int64(i)*int64(stride)

		p.source.ReadPadded(frame, start)
		if err := p.window.Apply(frame, frame); err != nil {
			return nil, fmt.Errorf("failed to window frame at %d: %w", start, err)
		}

		spectrum, err := p.transformer.ComputeMagnitudes(frame)
		if err != nil {
			return nil, fmt.Errorf("failed to transform frame at %d: %w", start, err)
		}
		spectrogram = append(spectrogram, spectrum)
	}

	p.logger.Debug("Spectrogram computed", logging.Fields{
		"first_sample": first,
		"stride":       stride,
		"rows":         count,
	})

	return spectrogram, nil
}

// RoundToStride floors frame to a multiple of stride, toward negative
// infinity for negative positions
func RoundToStride(frame int64, stride int) int64 {
	s := int64(stride)
	if s <= 0 {
		return frame
	}

	var index int64
	if frame >= 0 {
		index = frame / s
	} else {
		index = -((-frame + s - 1) / s)
	}
	return index * s
}
