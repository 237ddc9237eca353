package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/spectro/pkg/dsp/window"
	"github.com/RyanBlaney/spectro/pkg/refgen"
	"github.com/spf13/cobra"
)

var (
	referenceLength   int
	referenceSymmetry string
	referenceTypes    []string
	referenceFormat   string
	referenceOutput   string
)

// referenceCmd regenerates the golden coefficients used by the window tests
var referenceCmd = &cobra.Command{
	Use:   "gen-reference",
	Short: "Generate reference window coefficients for tests",
	Long: `Compute window coefficients with gonum's dsp/window package and print
them as Go slice literals (or YAML). The output is pasted into the window
package tests, so the table is checked against an independent implementation.

Examples:
  # Default fixtures: all window types, length 8, periodic
  spectro gen-reference

  # Symmetric Hann and Hamming of length 16 as YAML
  spectro gen-reference --types hann,hamming --length 16 --symmetry symmetric --format yaml`,
	Args: cobra.NoArgs,
	RunE: runReference,
}

func init() {
	rootCmd.AddCommand(referenceCmd)

	referenceCmd.Flags().IntVar(&referenceLength, "length", refgen.DefaultLength,
		"number of coefficients per window")
	referenceCmd.Flags().StringVar(&referenceSymmetry, "symmetry", "periodic",
		"window convention (symmetric, periodic)")
	referenceCmd.Flags().StringSliceVar(&referenceTypes, "types", nil,
		"window types to generate (default all)")
	referenceCmd.Flags().StringVar(&referenceFormat, "format", "go",
		"output format (go, yaml)")
	referenceCmd.Flags().StringVar(&referenceOutput, "out", "",
		"write to file instead of stdout")
}

func runReference(cmd *cobra.Command, args []string) error {
	symmetry, err := window.ParseSymmetry(referenceSymmetry)
	if err != nil {
		return err
	}

	opts := refgen.Options{Length: referenceLength, Symmetry: symmetry}
	for _, name := range referenceTypes {
		t, err := window.ParseType(name)
		if err != nil {
			return err
		}
		opts.Types = append(opts.Types, t)
	}

	var write func(io.Writer, []refgen.Vector) error
	switch referenceFormat {
	case "go":
		write = refgen.WriteGo
	case "yaml":
		write = refgen.WriteYAML
	default:
		return fmt.Errorf("unsupported reference format: %s", referenceFormat)
	}

	vectors, err := refgen.Generate(opts)
	if err != nil {
		return err
	}

	if referenceOutput == "" {
		return write(os.Stdout, vectors)
	}

	file, err := os.Create(referenceOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, vectors); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
