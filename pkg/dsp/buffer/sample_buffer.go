// Package buffer holds the mono sample store that spectrogram frames are
// read from.
package buffer

import (
	"errors"
	"fmt"
	"sync"
)

var ErrOutOfRange = errors.New("sample range out of bounds")

// SampleBuffer is an append-only mono sample store
type SampleBuffer struct {
	mu         sync.RWMutex
	sampleRate int
	samples    []float32
}

// New creates an empty buffer for audio at sampleRate Hz
func New(sampleRate int) *SampleBuffer {
	return &SampleBuffer{sampleRate: sampleRate}
}

// SampleRate returns the sample rate in Hz
func (b *SampleBuffer) SampleRate() int {
	return b.sampleRate
}

// SampleCount returns the number of stored samples
func (b *SampleBuffer) SampleCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// AddSamples appends a copy of samples
func (b *SampleBuffer) AddSamples(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Samples returns a copy of count samples starting at start
func (b *SampleBuffer) Samples(start, count int) ([]float32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if start < 0 || count < 0 || start+count > len(b.samples) {
		return nil, fmt.Errorf("%w: start %d, count %d, stored %d",
			ErrOutOfRange, start, count, len(b.samples))
	}

	result := make([]float32, count)
	copy(result, b.samples[start:start+count])
	return result, nil
}

// ReadPadded fills dst with the samples at [start, start+len(dst)).
// Positions before the first or after the last stored sample read as zero.
func (b *SampleBuffer) ReadPadded(dst []float32, start int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored := int64(len(b.samples))
	for i := range dst {
		pos := start + int64(i)
		if pos < 0 || pos >= stored {
			dst[i] = 0
			continue
		}
		dst[i] = b.samples[pos]
	}
}
