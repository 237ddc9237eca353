package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyanBlaney/spectro/configs"
	"github.com/RyanBlaney/spectro/internal/app"
	"github.com/spf13/cobra"
)

var (
	analyzeProfile  string
	analyzeTone     float64
	analyzeDuration time.Duration
	analyzeMode     string
	analyzeOutFile  string
	analyzeTimeout  time.Duration
	analyzePreset   string
)

// analyzeCmd runs the spectrum pipeline over a synthesized signal
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a synthesized tone with the spectrum pipeline",
	Long: `Synthesize a sine tone per channel, run it through the spectrum
pipeline and report the spectral peak of every channel.

The pipeline is fully set up before processing starts: every configured
window is computed, the window table is frozen and every analyzer is
allocated. In realtime mode frames stream through one goroutine per
channel; offline mode computes an STFT spectrogram per channel instead.

Examples:
  # 1 kHz tone for one second
  spectro analyze --tone 1000 --duration 1s

  # Multi-channel profile, JSON report written to a file
  spectro analyze --profile stereo.yaml -o json --out report.json

  # 8192-point frames with 75% overlap
  spectro analyze --preset high_resolution --tone 440

  # Offline spectrogram with the go-dsp FFT backend
  SPECTRO_FFT_BACKEND=go-dsp spectro analyze --mode offline`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeProfile, "profile", "",
		"analysis profile file (YAML or JSON)")
	analyzeCmd.Flags().Float64Var(&analyzeTone, "tone", 1000,
		"tone frequency in Hz")
	analyzeCmd.Flags().DurationVar(&analyzeDuration, "duration", time.Second,
		"length of the synthesized signal")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", app.ModeRealtime,
		"analysis mode (realtime, offline)")
	analyzeCmd.Flags().StringVar(&analyzeOutFile, "out", "",
		"write the report to a file instead of stdout")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", time.Minute,
		"maximum analysis time")
	analyzeCmd.Flags().StringVar(&analyzePreset, "preset", "",
		"fft preset (default, high_resolution, low_latency)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return err
	}

	if analyzePreset != "" {
		if err := config.ApplyFFTPreset(analyzePreset); err != nil {
			return err
		}
	}

	appCtx := &app.Context{
		ProfileFile:   analyzeProfile,
		OutputFile:    analyzeOutFile,
		OutputFormat:  config.OutputFormat,
		Mode:          analyzeMode,
		ToneFrequency: analyzeTone,
		Duration:      analyzeDuration,
		Verbose:       config.Verbose,
		Config:        config,
	}

	analyzer, err := app.NewAnalyzeApp(appCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	return analyzer.Run(ctx)
}
