package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro/configs"
	"github.com/RyanBlaney/spectro/internal/spectrum"
	"github.com/RyanBlaney/spectro/pkg/dsp/buffer"
	"github.com/RyanBlaney/spectro/pkg/dsp/features"
	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"golang.org/x/sync/errgroup"
)

const (
	ModeRealtime = "realtime"
	ModeOffline  = "offline"

	defaultToneFrequency = 1000.0
	defaultDuration      = time.Second
)

// ErrUnknownMode is returned for an analysis mode other than realtime or offline
var ErrUnknownMode = errors.New("unknown analysis mode")

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ProfileFile   string
	OutputFile    string
	OutputFormat  string
	Mode          string
	ToneFrequency float64
	Duration      time.Duration
	Verbose       bool

	// Runtime context
	Logger  logging.Logger
	Config  *configs.Config
	Profile *Profile
}

// AnalyzeApp handles the analysis application lifecycle
type AnalyzeApp struct {
	ctx      *Context
	config   spectrum.Config
	pipeline *spectrum.Pipeline
	logger   logging.Logger
}

// NewAnalyzeApp loads configuration and completes the setup phase: when it
// returns the window table is frozen and every analyzer is allocated
func NewAnalyzeApp(ctx *Context) (*AnalyzeApp, error) {
	mode, err := parseMode(ctx.Mode)
	if err != nil {
		return nil, err
	}
	ctx.Mode = mode

	// Set up logging
	logger := setupLogging(ctx)
	ctx.Logger = logger

	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	pipeline, err := spectrum.NewPipeline(config, spectrum.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to set up spectrum pipeline: %w", err)
	}

	logger.Debug("Analyze application initialized", logging.Fields{
		"profile_file":  ctx.ProfileFile,
		"output_format": ctx.OutputFormat,
		"mode":          ctx.Mode,
		"duration":      ctx.Duration.Seconds(),
		"channels":      config.Channels,
	})

	return &AnalyzeApp{
		ctx:      ctx,
		config:   config,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

// Pipeline returns the frozen spectrum pipeline
func (app *AnalyzeApp) Pipeline() *spectrum.Pipeline {
	return app.pipeline
}

// Run synthesizes the input signal, analyzes it and writes the report
func (app *AnalyzeApp) Run(ctx context.Context) error {
	report, err := app.Analyze(ctx)
	if err != nil {
		return err
	}
	return app.outputResults(report)
}

// Analyze synthesizes one buffer per channel and analyzes it in the
// configured mode
func (app *AnalyzeApp) Analyze(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sources := app.synthesize()

	start := time.Now()
	collectors := make([]*channelCollector, app.pipeline.Channels())
	for ch := range collectors {
		collectors[ch] = newChannelCollector(ch, app.toneFrequency(ch), app.config)
	}

	var err error
	switch app.ctx.Mode {
	case ModeOffline:
		err = app.runOffline(ctx, sources, collectors)
	default:
		err = app.runRealtime(ctx, sources, collectors)
	}
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	report := newReport(app.pipeline, app.ctx.Mode, time.Since(start), collectors, app.ctx.Verbose)

	app.logger.Debug("Analysis completed", logging.Fields{
		"mode":        report.Mode,
		"frames":      report.TotalFrames,
		"duration_ms": report.ProcessingTime.Milliseconds(),
	})

	return report, nil
}

// runRealtime feeds frames through the pipeline's channel goroutines
func (app *AnalyzeApp) runRealtime(ctx context.Context, sources []*buffer.SampleBuffer, collectors []*channelCollector) error {
	g, ctx := errgroup.WithContext(ctx)

	stride := app.pipeline.WindowStride()
	inputs := make([]<-chan []float32, len(sources))
	for ch, src := range sources {
		frames := make(chan []float32, 4)
		inputs[ch] = frames

		g.Go(func() error {
			defer close(frames)
			for i := range frameCount(src.SampleCount(), app.config.FFTSize, stride) {
				frame := make([]float32, app.config.FFTSize)
				src.ReadPadded(frame, int64(i*stride))
				select {
				case frames <- frame:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		return app.pipeline.Run(ctx, inputs, func(ch int, row []float32) error {
			collectors[ch].add(row)
			return nil
		})
	})

	return g.Wait()
}

// runOffline computes a spectrogram per channel with the STFT processor
func (app *AnalyzeApp) runOffline(ctx context.Context, sources []*buffer.SampleBuffer, collectors []*channelCollector) error {
	stride := app.pipeline.WindowStride()
	row := make([]float32, app.config.FFTSize/2+1)

	for ch, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		processor, err := app.pipeline.NewSTFT(src)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}

		count := frameCount(src.SampleCount(), app.config.FFTSize, stride)
		spectrogram, err := processor.ComputeSpectrogram(0, stride, count)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}

		for _, magnitudes := range spectrogram {
			for i, m := range magnitudes {
				row[i] = fft.ClampDecibels(fft.MagnitudeToDecibels(m), app.config.MinDecibels, app.config.MaxDecibels)
			}
			collectors[ch].add(row)
			collectors[ch].addFeatures(features.Extract(magnitudes, app.config.SampleRate))
		}
		collectors[ch].flux = features.Flux(spectrogram)
	}
	return nil
}

// synthesize fills one buffer per channel with the configured tone
func (app *AnalyzeApp) synthesize() []*buffer.SampleBuffer {
	amplitude := 1.0
	duration := app.ctx.Duration
	if p := app.ctx.Profile; p != nil {
		if p.Amplitude > 0 {
			amplitude = p.Amplitude
		}
		if p.DurationSeconds > 0 {
			duration = time.Duration(p.DurationSeconds * float64(time.Second))
		}
	}
	if duration <= 0 {
		duration = defaultDuration
	}

	sampleCount := int(duration.Seconds() * float64(app.config.SampleRate))
	sources := make([]*buffer.SampleBuffer, app.pipeline.Channels())
	for ch := range sources {
		sources[ch] = buffer.New(app.config.SampleRate)
		sources[ch].AddSamples(synthesizeTone(app.toneFrequency(ch), amplitude, app.config.SampleRate, sampleCount))
	}
	return sources
}

// toneFrequency returns the sine frequency for channel ch
func (app *AnalyzeApp) toneFrequency(ch int) float64 {
	if p := app.ctx.Profile; p != nil && len(p.ToneFrequencies) > 0 {
		return p.ToneFrequencies[ch%len(p.ToneFrequencies)]
	}
	if app.ctx.ToneFrequency > 0 {
		return app.ctx.ToneFrequency
	}
	return defaultToneFrequency
}

// parseMode normalizes an analysis mode, defaulting to realtime
func parseMode(mode string) (string, error) {
	switch strings.ToLower(mode) {
	case "", ModeRealtime:
		return ModeRealtime, nil
	case ModeOffline:
		return ModeOffline, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// synthesizeTone returns n samples of a sine wave
func synthesizeTone(frequency, amplitude float64, sampleRate, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)))
	}
	return samples
}

// frameCount returns how many frames of size fit in n samples at stride,
// with at least one zero-padded frame for short inputs
func frameCount(n, size, stride int) int {
	if n <= size {
		return 1
	}
	return (n-size)/stride + 1
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	level := "info"
	if ctx.Config != nil && ctx.Config.LogLevel != "" {
		level = ctx.Config.LogLevel
	}
	if ctx.Verbose || (ctx.Config != nil && ctx.Config.Verbose) {
		level = "debug"
	}

	switch strings.ToLower(level) {
	case "debug":
		logging.SetLevel(logging.DebugLevel)
	case "error":
		logging.SetLevel(logging.ErrorLevel)
	default:
		logging.SetLevel(logging.InfoLevel)
	}

	return logging.WithFields(logging.Fields{
		"component": "analyze_app",
	})
}

// loadAndMergeConfig loads configuration and merges the profile and CLI flags
func loadAndMergeConfig(ctx *Context) (spectrum.Config, error) {
	// Load base configuration
	baseConfig := ctx.Config
	if baseConfig == nil {
		var err error
		baseConfig, err = configs.LoadConfig()
		if err != nil {
			return spectrum.Config{}, fmt.Errorf("failed to load base configuration: %w", err)
		}
		ctx.Config = baseConfig
	}

	if err := configs.ValidateConfig(baseConfig); err != nil {
		return spectrum.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	config, err := baseConfig.SpectrumConfig()
	if err != nil {
		return spectrum.Config{}, err
	}

	// Load analysis profile from file (optional)
	if ctx.ProfileFile != "" {
		profile, err := loadProfileFromFile(ctx.ProfileFile)
		if err != nil {
			return spectrum.Config{}, fmt.Errorf("failed to load profile: %w", err)
		}
		if err := profile.Validate(); err != nil {
			return spectrum.Config{}, fmt.Errorf("invalid profile: %w", err)
		}
		ctx.Profile = profile
	}

	if ctx.Profile != nil {
		ctx.Profile.apply(&config)
	}

	if ctx.OutputFormat == "" {
		ctx.OutputFormat = baseConfig.OutputFormat
	}
	if baseConfig.Verbose {
		ctx.Verbose = true
	}

	if err := config.Validate(); err != nil {
		return spectrum.Config{}, err
	}

	return config, nil
}
