package fft

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	ErrNotPowerOfTwo  = errors.New("transform size must be a positive power of 2")
	ErrSizeMismatch   = errors.New("input size must equal transform size")
	ErrUnknownBackend = errors.New("unknown FFT backend")
)

// Backend selects the FFT implementation
type Backend string

const (
	// BackendGonum reuses a gonum plan and does not allocate per frame
	BackendGonum Backend = "gonum"
	// BackendGoDSP uses mjibson/go-dsp, which allocates its output per call
	BackendGoDSP Backend = "go-dsp"
)

// ParseBackend maps a configuration name to a backend
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gonum":
		return BackendGonum, nil
	case "go-dsp", "godsp", "mjibson":
		return BackendGoDSP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Transformer computes the spectrum of a frame of transform-size samples.
// Outputs have size/2+1 bins: DC, 1*Fs/N, ..., Nyquist.
type Transformer interface {
	TransformSize() int
	ComputeComplex(samples []float32) ([]complex128, error)
	ComputeMagnitudes(samples []float32) ([]float32, error)
}

// Processor is a real-input FFT of fixed power-of-two size
type Processor struct {
	size    int
	backend Backend
	logger  logging.Logger

	mu   sync.Mutex
	plan *fourier.FFT
	in   []float64
	out  []complex128
}

// Option configures a Processor
type Option func(*Processor)

// WithBackend selects the FFT implementation
func WithBackend(backend Backend) Option {
	return func(p *Processor) {
		p.backend = backend
	}
}

// NewProcessor creates a processor for the given transform size
func NewProcessor(size int, opts ...Option) (*Processor, error) {
	if !IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w, got: %d", ErrNotPowerOfTwo, size)
	}

	p := &Processor{
		size:    size,
		backend: BackendGonum,
		in:      make([]float64, size),
		out:     make([]complex128, size/2+1),
	}

	for _, opt := range opts {
		opt(p)
	}

	switch p.backend {
	case BackendGonum:
		p.plan = fourier.NewFFT(size)
	case BackendGoDSP:
		// go-dsp plans internally per call
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, p.backend)
	}

	p.logger = logging.WithFields(logging.Fields{
		"component":      "fft_processor",
		"transform_size": size,
		"backend":        string(p.backend),
	})
	p.logger.Debug("FFT processor created")

	return p, nil
}

// TransformSize returns the number of input samples per frame
func (p *Processor) TransformSize() int {
	return p.size
}

// Backend returns the FFT implementation in use
func (p *Processor) Backend() Backend {
	return p.backend
}

// Bins returns the number of output bins (size/2+1)
func (p *Processor) Bins() int {
	return p.size/2 + 1
}

// ComputeComplex returns the complex spectrum of samples
func (p *Processor) ComputeComplex(samples []float32) ([]complex128, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.compute(samples); err != nil {
		return nil, err
	}

	result := make([]complex128, len(p.out))
	copy(result, p.out)
	return result, nil
}

// ComputeMagnitudes returns |X[k]| for every output bin
func (p *Processor) ComputeMagnitudes(samples []float32) ([]float32, error) {
	magnitudes := make([]float32, p.Bins())
	if err := p.MagnitudesInto(magnitudes, samples); err != nil {
		return nil, err
	}
	return magnitudes, nil
}

// MagnitudesInto writes the magnitude spectrum of samples into dst, which must
// hold size/2+1 values. With the gonum backend it does not allocate.
func (p *Processor) MagnitudesInto(dst, samples []float32) error {
	if len(dst) != p.Bins() {
		return fmt.Errorf("%w: output holds %d bins, want %d", ErrSizeMismatch, len(dst), p.Bins())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.compute(samples); err != nil {
		return err
	}

	for i, c := range p.out {
		dst[i] = float32(cmplx.Abs(c))
	}
	return nil
}

// compute runs the transform into p.out. Callers hold p.mu.
func (p *Processor) compute(samples []float32) error {
	if len(samples) != p.size {
		return fmt.Errorf("%w: got %d samples, transform size %d", ErrSizeMismatch, len(samples), p.size)
	}

	for i, s := range samples {
		p.in[i] = float64(s)
	}

	switch p.backend {
	case BackendGoDSP:
		// go-dsp returns the full two-sided spectrum
		full := dspfft.FFTReal(p.in)
		copy(p.out, full[:len(p.out)])
	default:
		p.out = p.plan.Coefficients(p.out, p.in)
	}
	return nil
}

// IsPowerOfTwo reports whether n is a positive power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
