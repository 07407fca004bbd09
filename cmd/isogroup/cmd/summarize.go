package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [files...]",
	Short: "Summarize spectra",
	Long:  `Print summary statistics per spectrum: peak count, m/z range and intensity distribution.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spectra, err := readAll(args, inputFormat, msLevel)
		if err != nil {
			return err
		}
		summarize(cmd.OutOrStdout(), spectra)
		return nil
	},
}

// summary holds the statistics printed for one spectrum.
type summary struct {
	Peaks         int
	Positive      int
	MinMZ, MaxMZ  float64
	MeanIntensity float64
	SDIntensity   float64
	Median        float64
	BaseIntensity float64
}

// summarizeSpectrum computes the statistics of one spectrum. Peaks with a
// missing m/z are left out of the m/z range.
func summarizeSpectrum(spec *core.Spectrum) summary {
	s := summary{Peaks: spec.Len(), MinMZ: math.NaN(), MaxMZ: math.NaN(),
		MeanIntensity: math.NaN(), SDIntensity: math.NaN(), Median: math.NaN()}

	var mz, intensity []float64
	for _, p := range spec.Peaks {
		if !math.IsNaN(p.MZ) {
			mz = append(mz, p.MZ)
		}
		if p.Intensity > 0 {
			intensity = append(intensity, p.Intensity)
		}
	}
	s.Positive = len(intensity)

	if len(mz) > 0 {
		s.MinMZ = floats.Min(mz)
		s.MaxMZ = floats.Max(mz)
	}
	if len(intensity) > 0 {
		s.MeanIntensity, s.SDIntensity = stat.MeanStdDev(intensity, nil)
		s.BaseIntensity = floats.Max(intensity)
		sort.Float64s(intensity)
		s.Median = stat.Quantile(0.5, stat.Empirical, intensity, nil)
	}
	return s
}

func summarize(w io.Writer, spectra []*core.Spectrum) {
	total := 0
	for _, spec := range spectra {
		s := summarizeSpectrum(spec)
		total += s.Peaks

		fmt.Fprintf(w, "%s\n", spec.Label())
		fmt.Fprintf(w, "  Peaks: %d (%d with positive intensity)\n", s.Peaks, s.Positive)
		if !math.IsNaN(s.MinMZ) {
			fmt.Fprintf(w, "  m/z range: %.4f - %.4f\n", s.MinMZ, s.MaxMZ)
		}
		if s.Positive > 0 {
			fmt.Fprintf(w, "  Intensity: base %.4g, mean %.4g, sd %.4g, median %.4g\n",
				s.BaseIntensity, s.MeanIntensity, s.SDIntensity, s.Median)
		}
		if spec.PrecursorMZ > 0 && spec.Charge > 0 {
			fmt.Fprintf(w, "  Precursor: m/z %.4f, charge %d, neutral mass %.4f\n",
				spec.PrecursorMZ, spec.Charge, core.NeutralMass(spec.PrecursorMZ, spec.Charge))
		}
		if spec.RetentionTime != nil {
			fmt.Fprintf(w, "  Retention time: %.2f\n", *spec.RetentionTime)
		}
	}
	fmt.Fprintf(w, "\nSpectra: %d\nPeaks: %d\n", len(spectra), total)
}
