package spectrum

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/RyanBlaney/spectro/pkg/dsp/buffer"
	"github.com/RyanBlaney/spectro/pkg/dsp/fft"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func tone(frequency float64, sampleRate, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * frequency * float64(i) / float64(sampleRate)))
	}
	return samples
}

func peakBin(row []float32) int {
	peak := 0
	for i, v := range row {
		if v > row[peak] {
			peak = i
		}
	}
	return peak
}

type PipelineTestSuite struct {
	suite.Suite
	config Config
}

func (suite *PipelineTestSuite) SetupTest() {
	suite.config = DefaultConfig()
	suite.config.FFTSize = 1024
	suite.config.SampleRate = 8192
	suite.config.Channels = 2
	suite.config.MaxDecibels = 60
	suite.config.ExtraSpecs = []window.Spec{
		{Type: window.BlackmanHarris, Length: 4096, Symmetry: window.Periodic},
		{Type: window.Hamming, Length: 256, Symmetry: window.Symmetric},
	}
}

func (suite *PipelineTestSuite) TestSetupFreezesTable() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	suite.Equal(3, p.Table().Len())
	suite.Equal(2, p.Channels())
	suite.Equal(512, p.WindowStride())

	buf, ok := p.Table().Lookup(suite.config.AnalysisSpec())
	suite.Require().True(ok)
	suite.Same(buf, p.Analyzer(0).Window())
	suite.Same(buf, p.Analyzer(1).Window())
	suite.Equal(1024, p.Analyzer(0).FrameSize())
	suite.Equal(513, p.Analyzer(0).Bins())

	_, ok = p.Table().Lookup(window.Spec{Type: window.Blackman, Length: 1024, Symmetry: window.Periodic})
	suite.False(ok)
}

func (suite *PipelineTestSuite) TestSetupRejectsOversizedExtraSpec() {
	suite.config.MaxWindowLength = 2048

	_, err := NewPipeline(suite.config)
	var lengthErr *window.InvalidLengthError
	suite.Require().ErrorAs(err, &lengthErr)
	suite.Equal(4096, lengthErr.Length)
	suite.Equal(2048, lengthErr.Max)
}

func (suite *PipelineTestSuite) TestSetupRejectsInvalidConfig() {
	suite.config.FFTSize = 1000
	_, err := NewPipeline(suite.config)
	suite.ErrorIs(err, ErrInvalidConfig)
	suite.ErrorIs(err, fft.ErrNotPowerOfTwo)
}

func (suite *PipelineTestSuite) TestAnalyzerFindsTone() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	// 1024 Hz at 8192 Hz over 1024 samples lands exactly on bin 128
	frame := tone(1024, suite.config.SampleRate, suite.config.FFTSize)
	row := make([]float32, p.Analyzer(0).Bins())
	suite.Require().NoError(p.Analyzer(0).Process(frame, row))

	suite.Equal(128, peakBin(row))
	for _, v := range row {
		suite.GreaterOrEqual(v, suite.config.MinDecibels)
		suite.LessOrEqual(v, suite.config.MaxDecibels)
	}
	// Periodic Hann has a coherent gain of 0.5: |X[128]| = 1024/2 * 0.5
	suite.InDelta(20*math.Log10(256), row[128], 1e-3)
	suite.Equal(suite.config.MinDecibels, row[400])
}

func (suite *PipelineTestSuite) TestAnalyzerClampsToAperture() {
	suite.config.MaxDecibels = 30
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	frame := tone(1024, suite.config.SampleRate, suite.config.FFTSize)
	row := make([]float32, p.Analyzer(0).Bins())
	suite.Require().NoError(p.Analyzer(0).Process(frame, row))

	suite.Equal(float32(30), row[128])
	suite.Equal(float32(-30), row[0])
}

func (suite *PipelineTestSuite) TestAnalyzerRejectsBadSizes() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)
	a := p.Analyzer(0)

	suite.ErrorIs(a.Process(make([]float32, 100), make([]float32, a.Bins())), window.ErrLengthMismatch)
	suite.Error(a.Process(make([]float32, a.FrameSize()), make([]float32, 3)))
}

func (suite *PipelineTestSuite) TestProcessDoesNotAllocate() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	a := p.Analyzer(1)
	frame := tone(440, suite.config.SampleRate, a.FrameSize())
	row := make([]float32, a.Bins())

	allocs := testing.AllocsPerRun(100, func() {
		_ = a.Process(frame, row)
	})
	suite.Zero(allocs)
}

func (suite *PipelineTestSuite) TestRunProcessesAllChannels() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	const framesPerChannel = 8
	inputs := make([]<-chan []float32, p.Channels())
	frequencies := []float64{512, 2048}
	for ch := range inputs {
		in := make(chan []float32, framesPerChannel)
		frame := tone(frequencies[ch], suite.config.SampleRate, suite.config.FFTSize)
		for range framesPerChannel {
			in <- frame
		}
		close(in)
		inputs[ch] = in
	}

	var mu sync.Mutex
	peaks := map[int][]int{}
	err = p.Run(context.Background(), inputs, func(ch int, row []float32) error {
		mu.Lock()
		defer mu.Unlock()
		peaks[ch] = append(peaks[ch], peakBin(row))
		return nil
	})
	suite.Require().NoError(err)

	suite.Len(peaks[0], framesPerChannel)
	suite.Len(peaks[1], framesPerChannel)
	for _, bin := range peaks[0] {
		suite.Equal(64, bin)
	}
	for _, bin := range peaks[1] {
		suite.Equal(256, bin)
	}
}

func (suite *PipelineTestSuite) TestRunCancellation() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	// Inputs that never close
	inputs := []<-chan []float32{make(chan []float32), make(chan []float32)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, inputs, func(int, []float32) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		suite.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		suite.Fail("pipeline did not stop after cancellation")
	}
}

func (suite *PipelineTestSuite) TestRunStopsOnSinkError() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	failing := errors.New("sink full")
	frame := make([]float32, suite.config.FFTSize)

	in0 := make(chan []float32, 1)
	in0 <- frame
	// channel 1 never delivers, so only the sink error can end the run
	inputs := []<-chan []float32{in0, make(chan []float32)}

	err = p.Run(context.Background(), inputs, func(ch int, _ []float32) error {
		return failing
	})
	suite.ErrorIs(err, failing)
}

func (suite *PipelineTestSuite) TestRunInputCountMismatch() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	err = p.Run(context.Background(), []<-chan []float32{make(chan []float32)}, nil)
	suite.ErrorIs(err, ErrInvalidConfig)
}

func (suite *PipelineTestSuite) TestNewSTFTUsesFrozenWindow() {
	p, err := NewPipeline(suite.config)
	suite.Require().NoError(err)

	src := buffer.New(suite.config.SampleRate)
	src.AddSamples(tone(1024, suite.config.SampleRate, 4*suite.config.FFTSize))

	processor, err := p.NewSTFT(src)
	suite.Require().NoError(err)

	rows, err := processor.ComputeSpectrogram(0, p.WindowStride(), 4)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 4)
	for _, row := range rows {
		suite.Equal(128, peakBin(row))
	}
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"no channels", func(c *Config) { c.Channels = 0 }},
		{"fft not power of two", func(c *Config) { c.FFTSize = 1500 }},
		{"zero window scale", func(c *Config) { c.WindowScale = 0 }},
		{"window scale above fft size", func(c *Config) { c.WindowScale = 4096 }},
		{"inverted aperture", func(c *Config) { c.MinDecibels, c.MaxDecibels = 10, -10 }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigWindowStride(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1024, cfg.WindowStride())

	cfg.WindowScale = 8
	assert.Equal(t, 256, cfg.WindowStride())
}
