package spectrum

import (
	"fmt"

	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
)

// Analyzer turns one channel's frames into clamped decibel spectra. All of
// its storage is allocated at construction, so Process never allocates.
// An Analyzer is owned by a single goroutine.
type Analyzer struct {
	channel     int
	window      *window.Buffer
	transform   *fft.Processor
	minDecibels float32
	maxDecibels float32

	windowed   []float32
	magnitudes []float32
}

func newAnalyzer(channel int, w *window.Buffer, transform *fft.Processor, cfg Config) *Analyzer {
	return &Analyzer{
		channel:     channel,
		window:      w,
		transform:   transform,
		minDecibels: cfg.MinDecibels,
		maxDecibels: cfg.MaxDecibels,
		windowed:    make([]float32, w.Len()),
		magnitudes:  make([]float32, transform.Bins()),
	}
}

// Channel returns the channel index this analyzer serves
func (a *Analyzer) Channel() int {
	return a.channel
}

// FrameSize returns the number of samples Process expects
func (a *Analyzer) FrameSize() int {
	return a.window.Len()
}

// Bins returns the number of values Process writes
func (a *Analyzer) Bins() int {
	return len(a.magnitudes)
}

// Window returns the frozen coefficient buffer applied to each frame
func (a *Analyzer) Window() *window.Buffer {
	return a.window
}

// Process windows frame, transforms it and writes decibels clamped to the
// aperture into out. frame is not modified.
func (a *Analyzer) Process(frame, out []float32) error {
	if len(out) != len(a.magnitudes) {
		return fmt.Errorf("channel %d: output holds %d bins, want %d", a.channel, len(out), len(a.magnitudes))
	}
	if err := a.window.Apply(a.windowed, frame); err != nil {
		return fmt.Errorf("channel %d: %w", a.channel, err)
	}
	if err := a.transform.MagnitudesInto(a.magnitudes, a.windowed); err != nil {
		return fmt.Errorf("channel %d: %w", a.channel, err)
	}

	for i, m := range a.magnitudes {
		out[i] = fft.ClampDecibels(fft.MagnitudeToDecibels(m), a.minDecibels, a.maxDecibels)
	}
	return nil
}
