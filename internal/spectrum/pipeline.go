// Package spectrum runs per-channel spectrum analysis in two phases. Setup
// builds and pre-warms a window table, freezes it and allocates every
// analyzer. Processing only reads the frozen buffers.
package spectrum

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"github.com/RyanBlaney/spectro/pkg/dsp/stft"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"golang.org/x/sync/errgroup"
)

// Sink receives one spectrum row per processed frame. row is reused for the
// next frame of the same channel and must not be retained.
type Sink func(channel int, row []float32) error

// Pipeline owns the frozen window table and one analyzer per channel
type Pipeline struct {
	config    Config
	table     *window.FrozenTable
	analyzers []*Analyzer
	logger    logging.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger overrides the pipeline logger
func WithLogger(logger logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline performs the whole setup phase. When it returns, the window
// table is frozen and no further allocation is needed to process frames.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "spectrum_pipeline",
		}),
	}
	for _, opt := range opts {
		opt(p)
	}

	tableOpts := []window.TableOption{window.WithLogger(p.logger)}
	if cfg.MaxWindowLength > 0 {
		tableOpts = append(tableOpts, window.WithMaxLength(cfg.MaxWindowLength))
	}
	table := window.NewTable(tableOpts...)

	specs := append([]window.Spec{cfg.AnalysisSpec()}, cfg.ExtraSpecs...)
	if err := table.Prewarm(specs...); err != nil {
		return nil, fmt.Errorf("failed to prepare window table: %w", err)
	}
	p.table = table.Freeze()

	analysisWindow := p.table.MustLookup(cfg.AnalysisSpec())

	p.analyzers = make([]*Analyzer, cfg.Channels)
	for ch := range p.analyzers {
		transform, err := fft.NewProcessor(cfg.FFTSize, fft.WithBackend(cfg.Backend))
		if err != nil {
			return nil, fmt.Errorf("failed to create FFT processor for channel %d: %w", ch, err)
		}
		p.analyzers[ch] = newAnalyzer(ch, analysisWindow, transform, cfg)
	}

	p.logger.Info("Spectrum pipeline ready", logging.Fields{
		"channels":       cfg.Channels,
		"fft_size":       cfg.FFTSize,
		"window":         cfg.AnalysisSpec().String(),
		"window_stride":  cfg.WindowStride(),
		"frozen_windows": p.table.Len(),
		"backend":        string(cfg.Backend),
	})

	return p, nil
}

// Config returns the configuration the pipeline was built with
func (p *Pipeline) Config() Config {
	return p.config
}

// Table returns the frozen window table
func (p *Pipeline) Table() *window.FrozenTable {
	return p.table
}

// Channels returns the number of analyzers
func (p *Pipeline) Channels() int {
	return len(p.analyzers)
}

// Analyzer returns the analyzer for channel ch
func (p *Pipeline) Analyzer(ch int) *Analyzer {
	return p.analyzers[ch]
}

// WindowStride is the hop between frames (FFT size / window scale)
func (p *Pipeline) WindowStride() int {
	return p.config.WindowStride()
}

// NewSTFT builds an offline spectrogram processor over src that uses the
// frozen analysis window. It allocates and belongs to the setup phase.
func (p *Pipeline) NewSTFT(src stft.Source) (*stft.Processor, error) {
	transform, err := fft.NewProcessor(p.config.FFTSize, fft.WithBackend(p.config.Backend))
	if err != nil {
		return nil, err
	}
	return stft.NewProcessor(transform, p.table.MustLookup(p.config.AnalysisSpec()), src,
		stft.WithLogger(p.logger))
}

// Run processes frames from inputs[ch] on channel ch until every input is
// closed, ctx is cancelled or a channel fails. Each channel runs in its own
// goroutine; the first error cancels the others and is returned.
func (p *Pipeline) Run(ctx context.Context, inputs []<-chan []float32, sink Sink) error {
	if len(inputs) != len(p.analyzers) {
		return fmt.Errorf("%w: got %d inputs for %d channels", ErrInvalidConfig, len(inputs), len(p.analyzers))
	}

	g, ctx := errgroup.WithContext(ctx)
	for ch, input := range inputs {
		analyzer := p.analyzers[ch]
		row := make([]float32, analyzer.Bins())

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case frame, ok := <-input:
					if !ok {
						return nil
					}
					if err := analyzer.Process(frame, row); err != nil {
						return err
					}
					if err := sink(ch, row); err != nil {
						return fmt.Errorf("channel %d sink: %w", ch, err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Warn("Spectrum pipeline stopped", logging.Fields{
			"error": err.Error(),
		})
		return err
	}
	return nil
}
