package cmd

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/spectro/internal/app"
	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	windowType      string
	windowLength    int
	windowSymmetry  string
	windowPrecision int
)

// windowCmd prints the coefficients of one window
var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print window coefficients and metrics",
	Long: `Compute a window through the window table and print its coefficients
together with its coherent gain and equivalent noise bandwidth.

Examples:
  # Periodic Hann window used for 1024-point spectra
  spectro window --type hann --length 1024

  # Symmetric Blackman-Harris window as YAML
  spectro window --type blackman_harris --length 64 --symmetry symmetric -o yaml`,
	RunE: runWindow,
}

func init() {
	rootCmd.AddCommand(windowCmd)

	windowCmd.Flags().StringVar(&windowType, "type", "hann",
		"window type (hann, hamming, blackman, blackman_harris)")
	windowCmd.Flags().IntVar(&windowLength, "length", 1024,
		"number of coefficients")
	windowCmd.Flags().StringVar(&windowSymmetry, "symmetry", "periodic",
		"window convention (symmetric, periodic)")
	windowCmd.Flags().IntVar(&windowPrecision, "precision", 7,
		"decimal places for coefficients")
}

func runWindow(cmd *cobra.Command, args []string) error {
	if windowPrecision < 0 {
		return fmt.Errorf("precision cannot be negative, got: %d", windowPrecision)
	}

	spec, err := window.NewSpec(windowType, windowLength, windowSymmetry)
	if err != nil {
		return err
	}

	buf, err := window.NewTable().GetOrCompute(spec)
	if err != nil {
		return err
	}

	coefficients := make([]string, buf.Len())
	for i := range coefficients {
		coefficients[i] = fmt.Sprintf("%.*f", windowPrecision, buf.At(i))
	}

	outputData := map[string]any{
		"spec":          spec,
		"coherent_gain": buf.CoherentGain(),
		"enbw_bins":     buf.ENBW(),
		"coefficients":  coefficients,
	}

	formatted, err := app.FormatOutput(viper.GetString("output_format"), outputData)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(formatted)
	return err
}
