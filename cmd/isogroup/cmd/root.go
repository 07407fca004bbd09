// Package cmd provides CLI command implementations
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Flags for group command
	configFile     string
	tableName      string
	tableFile      string
	strategyName   string
	tolerance      float64
	ppm            float64
	charge         float64
	seedMZ         []float64
	skipValidation bool
	inputFormat    string
	msLevel        int
	workers        int
	outputFile     string
	dbFile         string
	quiet          bool

	// Peak masking flags
	minIntensity  float64
	cutoffPercent float64
	topN          int
	minMZ         float64
	maxMZ         float64

	// Flags for tables command
	showTable string

	// Flags for match command
	refFile       string
	duplicates    string
	withIntensity bool
	intensityTol  float64
)

var rootCmd = &cobra.Command{
	Use:   "isogroup",
	Short: "isogroup - Isotopologue grouping tool",
	Long: `isogroup groups the peaks of mass spectra into isotopologue sets: a
monoisotopic seed peak plus the peaks explained by isotope substitutions
whose intensity ratio to the seed fits the substitution's envelope.

Supported inputs:
- Plain two-column peak lists (whitespace, tab or comma separated)
- MSP spectral libraries
- mzML files (centroided spectra, MS1 by default)`,
	Version: "1.0.0",
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(matchCmd)

	// Input flags shared by the commands that read spectra
	for _, c := range []*cobra.Command{groupCmd, validateCmd, summarizeCmd} {
		c.Flags().StringVarP(&inputFormat, "from", "f", "auto", "Input format: peaklist, msp, mzml (auto-detect from extension)")
		c.Flags().IntVar(&msLevel, "ms-level", 1, "MS level read from mzML files (0 = all)")
	}

	// Group command flags
	groupCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file; flags given on the command line take precedence")
	groupCmd.Flags().StringVarP(&tableName, "table", "t", "HMDB", "Registered substitution table")
	groupCmd.Flags().StringVar(&tableFile, "table-file", "", "Substitution table file (CSV or YAML), overrides --table")
	groupCmd.Flags().StringVarP(&strategyName, "strategy", "s", "exhaustive", "Matching strategy: exhaustive, single, reverse, grouped")
	groupCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Absolute m/z tolerance")
	groupCmd.Flags().Float64Var(&ppm, "ppm", 20, "Relative m/z tolerance in ppm")
	groupCmd.Flags().Float64Var(&charge, "charge", 1, "Charge used to convert m/z to compound mass")
	groupCmd.Flags().Float64SliceVar(&seedMZ, "seed-mz", nil, "Only use the peaks nearest to these m/z values as seeds")
	groupCmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Skip the sortedness and missing m/z checks")
	groupCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of spectra grouped concurrently (0 = all CPUs)")
	groupCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write JSON results to this file instead of stdout")
	groupCmd.Flags().StringVar(&dbFile, "db", "", "Also write results to this SQLite database")
	groupCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	groupCmd.Flags().Float64Var(&minIntensity, "min-intensity", 0, "Ignore peaks below this intensity (0 = off)")
	groupCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Ignore peaks below this % of base peak (0 = off)")
	groupCmd.Flags().IntVar(&topN, "top-n", 0, "Only use the top N most intense peaks (0 = no limit)")
	groupCmd.Flags().Float64Var(&minMZ, "min-mz", 0, "Ignore peaks below this m/z (0 = off)")
	groupCmd.Flags().Float64Var(&maxMZ, "max-mz", 0, "Ignore peaks above this m/z (0 = off)")

	// Tables command flags
	tablesCmd.Flags().StringVar(&showTable, "show", "", "Print the rows of this table")

	// Match command flags
	matchCmd.Flags().StringVarP(&refFile, "ref", "r", "", "Reference peak list (required)")
	matchCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Absolute m/z tolerance")
	matchCmd.Flags().Float64Var(&ppm, "ppm", 20, "Relative m/z tolerance in ppm")
	matchCmd.Flags().StringVar(&duplicates, "duplicates", "keep", "Shared reference handling: keep, closest, remove")
	matchCmd.Flags().BoolVar(&withIntensity, "with-intensity", false, "Match on (m/z, intensity) pairs")
	matchCmd.Flags().Float64Var(&intensityTol, "intensity-tolerance", 0, "Absolute intensity tolerance for --with-intensity")
	matchCmd.MarkFlagRequired("ref")
}
