package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/match"
	"github.com/ChrisMcGann/isogroup/pkg/reader/peaklist"
)

var matchCmd = &cobra.Command{
	Use:   "match [query]",
	Short: "Match the peaks of one peak list against another",
	Long: `Match every peak of the query peak list to the closest peak of the
reference peak list within tolerance + ppm. With --with-intensity both m/z
and intensity must be within tolerance and the closest pair wins.

Examples:
  # Match within 5 ppm, keeping only the closest query per reference peak
  isogroup match sample.txt --ref reference.txt --ppm 5 --duplicates closest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := peaklist.ReadFile(args[0])
		if err != nil {
			return err
		}
		ref, err := peaklist.ReadFile(refFile)
		if err != nil {
			return err
		}

		var res []match.Index
		if withIntensity {
			res, err = matchPairs(query, ref, tolerance, ppm, intensityTol)
		} else {
			res, err = matchMZ(query, ref, tolerance, ppm, duplicates)
		}
		if err != nil {
			return err
		}
		printMatches(cmd.OutOrStdout(), query, ref, res)
		return nil
	},
}

// matchMZ matches on m/z alone. The reference must be sorted.
func matchMZ(query, ref *core.Spectrum, tol, ppm float64, dup string) ([]match.Index, error) {
	policy, err := match.ParseDuplicates(dup)
	if err != nil {
		return nil, err
	}
	if err := ref.ValidatePeaks(); err != nil {
		return nil, fmt.Errorf("reference %s: %w", ref.Label(), err)
	}
	return match.Closest(query.MZs(), ref.MZs(), tol, ppm, policy), nil
}

// matchPairs matches (m/z, intensity) rows. The ppm tolerance applies to
// m/z only.
func matchPairs(query, ref *core.Spectrum, tol, ppm, intensityTol float64) ([]match.Index, error) {
	return match.MClosest(rows(query), rows(ref),
		[]float64{tol, intensityTol}, []float64{ppm, 0})
}

func rows(spec *core.Spectrum) [][]float64 {
	out := make([][]float64, len(spec.Peaks))
	for i, p := range spec.Peaks {
		out[i] = []float64{p.MZ, p.Intensity}
	}
	return out
}

func printMatches(w io.Writer, query, ref *core.Spectrum, res []match.Index) {
	fmt.Fprintln(w, "query\tquery_mz\tref\tref_mz")
	matched := 0
	for i, r := range res {
		if !r.OK {
			fmt.Fprintf(w, "%d\t%.6f\tNA\tNA\n", i, query.Peaks[i].MZ)
			continue
		}
		matched++
		fmt.Fprintf(w, "%d\t%.6f\t%d\t%.6f\n", i, query.Peaks[i].MZ, r.Pos, ref.Peaks[r.Pos].MZ)
	}
	fmt.Fprintf(w, "# matched %d of %d\n", matched, len(res))
}
