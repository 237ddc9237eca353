package app

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/RyanBlaney/spectro/configs"
	"github.com/RyanBlaney/spectro/internal/spectrum"
	"github.com/RyanBlaney/spectro/pkg/dsp/features"
	"gonum.org/v1/gonum/floats"
)

// Report summarizes an analysis run
type Report struct {
	Mode           string          `json:"mode" yaml:"mode"`
	Window         *WindowReport   `json:"window,omitempty" yaml:"window,omitempty"`
	FFTSize        int             `json:"fft_size" yaml:"fft_size"`
	WindowStride   int             `json:"window_stride" yaml:"window_stride"`
	SampleRate     int             `json:"sample_rate" yaml:"sample_rate"`
	FrozenWindows  int             `json:"frozen_windows" yaml:"frozen_windows"`
	TotalFrames    int             `json:"total_frames" yaml:"total_frames"`
	ProcessingTime time.Duration   `json:"processing_time" yaml:"processing_time"`
	Channels       []ChannelReport `json:"channels" yaml:"channels"`
}

// WindowReport describes the analysis window
type WindowReport struct {
	Spec         string  `json:"spec" yaml:"spec"`
	CoherentGain float64 `json:"coherent_gain" yaml:"coherent_gain"`
	ENBW         float64 `json:"enbw_bins" yaml:"enbw_bins"`
}

// ChannelReport summarizes the spectra of one channel
type ChannelReport struct {
	Channel             int           `json:"channel" yaml:"channel"`
	ToneFrequencyHz     float64       `json:"tone_frequency_hz" yaml:"tone_frequency_hz"`
	Frames              int           `json:"frames" yaml:"frames"`
	DominantBin         int           `json:"dominant_bin" yaml:"dominant_bin"`
	DominantFrequencyHz float64       `json:"dominant_frequency_hz" yaml:"dominant_frequency_hz"`
	MeanPeakDecibels    float64       `json:"mean_peak_db" yaml:"mean_peak_db"`
	MaxPeakDecibels     float32       `json:"max_peak_db" yaml:"max_peak_db"`

	// Offline mode only
	Features *features.Spectral `json:"features,omitempty" yaml:"features,omitempty"`
	MeanFlux float64            `json:"mean_flux,omitempty" yaml:"mean_flux,omitempty"`

	FrameReports []FrameReport `json:"frame_reports,omitempty" yaml:"frame_reports,omitempty"`
}

// FrameReport is the spectral peak of a single frame
type FrameReport struct {
	Index           int     `json:"index" yaml:"index"`
	PeakBin         int     `json:"peak_bin" yaml:"peak_bin"`
	PeakFrequencyHz float64 `json:"peak_frequency_hz" yaml:"peak_frequency_hz"`
	PeakDecibels    float32 `json:"peak_db" yaml:"peak_db"`

	TimeSeconds *float64 `json:"time_s,omitempty" yaml:"time_s,omitempty"`
}

// channelCollector accumulates per-frame peaks for one channel. It is only
// touched by the goroutine serving that channel.
type channelCollector struct {
	channel   int
	frequency float64
	binHz     float64
	frames    []FrameReport
	spectra   []features.Spectral
	flux      []float64
}

func newChannelCollector(channel int, frequency float64, cfg spectrum.Config) *channelCollector {
	return &channelCollector{
		channel:   channel,
		frequency: frequency,
		binHz:     float64(cfg.SampleRate) / float64(cfg.FFTSize),
	}
}

func (c *channelCollector) add(row []float32) {
	peak := 0
	for i, v := range row {
		if v > row[peak] {
			peak = i
		}
	}

	c.frames = append(c.frames, FrameReport{
		Index:           len(c.frames),
		PeakBin:         peak,
		PeakFrequencyHz: float64(peak) * c.binHz,
		PeakDecibels:    row[peak],
	})
}

func (c *channelCollector) addFeatures(s features.Spectral) {
	c.spectra = append(c.spectra, s)
}

func (c *channelCollector) report(verbose bool) ChannelReport {
	r := ChannelReport{
		Channel:         c.channel,
		ToneFrequencyHz: c.frequency,
		Frames:          len(c.frames),
	}
	if len(c.frames) == 0 {
		return r
	}

	votes := make(map[int]int)
	var sum float64
	r.MaxPeakDecibels = c.frames[0].PeakDecibels
	for _, f := range c.frames {
		votes[f.PeakBin]++
		sum += float64(f.PeakDecibels)
		r.MaxPeakDecibels = max(r.MaxPeakDecibels, f.PeakDecibels)
	}

	r.DominantBin = c.frames[0].PeakBin
	for bin, n := range votes {
		if n > votes[r.DominantBin] || (n == votes[r.DominantBin] && bin < r.DominantBin) {
			r.DominantBin = bin
		}
	}
	r.DominantFrequencyHz = float64(r.DominantBin) * c.binHz
	r.MeanPeakDecibels = sum / float64(len(c.frames))

	if len(c.spectra) > 0 {
		mean := features.Mean(c.spectra)
		r.Features = &mean
	}
	if len(c.flux) > 0 {
		r.MeanFlux = floats.Sum(c.flux) / float64(len(c.flux))
	}

	if verbose {
		r.FrameReports = c.frames
	}
	return r
}

func newReport(p *spectrum.Pipeline, mode string, elapsed time.Duration, collectors []*channelCollector, verbose bool) *Report {
	cfg := p.Config()
	w := p.Analyzer(0).Window()

	report := &Report{
		Mode: mode,
		Window: &WindowReport{
			Spec:         w.Spec().String(),
			CoherentGain: w.CoherentGain(),
			ENBW:         w.ENBW(),
		},
		FFTSize:        cfg.FFTSize,
		WindowStride:   p.WindowStride(),
		SampleRate:     cfg.SampleRate,
		FrozenWindows:  p.Table().Len(),
		ProcessingTime: elapsed,
		Channels:       make([]ChannelReport, 0, len(collectors)),
	}

	for _, c := range collectors {
		channel := c.report(verbose)
		report.TotalFrames += channel.Frames
		report.Channels = append(report.Channels, channel)
	}
	return report
}

// formatReport returns a copy of report with the output settings applied:
// values rounded to the configured precision, the window block kept only
// with metadata and frame start times added when timestamps are enabled
func formatReport(report *Report, cfg configs.OutputConfig) *Report {
	round := func(f float64) float64 {
		return roundToDecimalPlaces(f, cfg.Precision)
	}
	round32 := func(f float32) float32 {
		return float32(round(float64(f)))
	}

	out := *report
	out.Window = nil
	if cfg.IncludeMetadata && report.Window != nil {
		w := *report.Window
		w.CoherentGain = round(w.CoherentGain)
		w.ENBW = round(w.ENBW)
		out.Window = &w
	}

	out.Channels = make([]ChannelReport, len(report.Channels))
	for i, ch := range report.Channels {
		ch.DominantFrequencyHz = round(ch.DominantFrequencyHz)
		ch.MeanPeakDecibels = round(ch.MeanPeakDecibels)
		ch.MaxPeakDecibels = round32(ch.MaxPeakDecibels)
		ch.MeanFlux = round(ch.MeanFlux)

		if ch.Features != nil {
			f := *ch.Features
			f.Centroid = round(f.Centroid)
			f.Rolloff = round(f.Rolloff)
			f.Bandwidth = round(f.Bandwidth)
			f.Flatness = round(f.Flatness)
			f.Crest = round(f.Crest)
			f.Energy = round(f.Energy)
			ch.Features = &f
		}

		if ch.FrameReports != nil {
			frames := make([]FrameReport, len(ch.FrameReports))
			for j, frame := range ch.FrameReports {
				frame.PeakFrequencyHz = round(frame.PeakFrequencyHz)
				frame.PeakDecibels = round32(frame.PeakDecibels)
				frame.TimeSeconds = nil
				if cfg.Timestamps && report.SampleRate > 0 {
					start := round(float64(frame.Index*report.WindowStride) / float64(report.SampleRate))
					frame.TimeSeconds = &start
				}
				frames[j] = frame
			}
			ch.FrameReports = frames
		}

		out.Channels[i] = ch
	}

	return &out
}

func roundToDecimalPlaces(f float64, decimals int) float64 {
	multiplier := math.Pow10(decimals)
	return math.Round(f*multiplier) / multiplier
}

// outputResults handles all result output
func (app *AnalyzeApp) outputResults(report *Report) error {
	cfg := configs.GetDefaultOutputConfig()
	if app.ctx.Config != nil {
		cfg = app.ctx.Config.Output
	}

	outputData := map[string]any{
		"analysis": formatReport(report, cfg),
	}
	if cfg.IncludeMetadata {
		outputData["timestamp"] = time.Now()
	}

	formattedData, err := FormatOutput(app.ctx.OutputFormat, outputData)
	if err != nil {
		return err
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// NewFormatter returns the output formatter for format, defaulting to JSON
func NewFormatter(format string) output.Formatter {
	switch format {
	case "json":
		return &output.JSONFormatter{}
	case "yaml":
		return &output.YAMLFormatter{}
	case "table":
		return &output.TableFormatter{}
	default:
		return &output.JSONFormatter{}
	}
}

// FormatOutput renders data with the formatter for format
func FormatOutput(format string, data any) ([]byte, error) {
	formatted, err := NewFormatter(format).Format(data, true)
	if err != nil {
		return nil, fmt.Errorf("failed to format output data: %w", err)
	}
	return formatted, nil
}

// writeToFile writes data to the specified output file
func (app *AnalyzeApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
