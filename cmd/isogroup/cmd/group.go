package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/isogroup/pkg/config"
	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/filter"
	"github.com/ChrisMcGann/isogroup/pkg/isotopologue"
	"github.com/ChrisMcGann/isogroup/pkg/writer/sqlite"
)

var groupCmd = &cobra.Command{
	Use:   "group [files...]",
	Short: "Group spectrum peaks into isotopologue sets",
	Long: `Group the peaks of one or more spectra into isotopologue sets and write
the groups as JSON (and optionally to a SQLite database).

Examples:
  # Group a peak list with the built-in table
  isogroup group sample.txt

  # Faster matching, 5 ppm, results to a file and a database
  isogroup group run.mzML --strategy single --ppm 5 --out groups.json --db groups.db

  # Settings from a file, with one override
  isogroup group library.msp --config run.yaml --workers 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGroup,
}

// outputs selects where grouping results go.
type outputs struct {
	jsonPath string
	dbPath   string
	quiet    bool
}

// groupJSON is one group in the JSON output.
type groupJSON struct {
	Indices []int      `json:"indices"`
	MZ      []float64  `json:"mz"`
	Labels  [][]string `json:"labels"`
}

// spectrumJSON is the JSON output for one spectrum.
type spectrumJSON struct {
	Spectrum   string      `json:"spectrum"`
	SourceFile string      `json:"sourceFile,omitempty"`
	Groups     []groupJSON `json:"groups"`
	Error      string      `json:"error,omitempty"`
}

func runGroup(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return groupFiles(cmd.Context(), cfg, args, outputs{
		jsonPath: outputFile,
		dbPath:   dbFile,
		quiet:    quiet,
	})
}

// resolveConfig starts from the defaults or --config and applies every
// flag that was set explicitly.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Table = tableName
		cfg.TableFile = ""
	}
	if flags.Changed("table-file") {
		cfg.TableFile = tableFile
	}
	if flags.Changed("strategy") {
		cfg.Strategy = strategyName
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("ppm") {
		cfg.PPM = ppm
	}
	if flags.Changed("charge") {
		cfg.Charge = charge
	}
	if flags.Changed("seed-mz") {
		cfg.SeedMZ = seedMZ
	}
	if flags.Changed("skip-validation") {
		cfg.SkipValidation = skipValidation
	}
	if flags.Changed("from") {
		cfg.Format = inputFormat
	}
	if flags.Changed("ms-level") {
		cfg.MSLevel = msLevel
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("min-intensity") {
		cfg.Filter.MinIntensity = minIntensity
	}
	if flags.Changed("cutoff") {
		cfg.Filter.IntensityCutoff = cutoffPercent
	}
	if flags.Changed("top-n") {
		cfg.Filter.TopN = topN
	}
	if flags.Changed("min-mz") {
		cfg.Filter.MinMZ = minMZ
	}
	if flags.Changed("max-mz") {
		cfg.Filter.MaxMZ = maxMZ
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// groupFiles reads the input files, groups every spectrum and writes the
// results.
func groupFiles(ctx context.Context, cfg config.Config, paths []string, out outputs) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Progress goes to stderr when stdout carries the JSON
	var progress io.Writer = os.Stdout
	if out.jsonPath == "" {
		progress = os.Stderr
	}
	if out.quiet {
		progress = io.Discard
	}

	name, table, err := cfg.LoadTable()
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	spectra, err := readAll(paths, cfg.Format, cfg.MSLevel)
	if err != nil {
		return err
	}

	fmt.Fprintf(progress, "Grouping %d spectra from %d file(s)...\n", len(spectra), len(paths))
	fmt.Fprintf(progress, "Strategy: %s\n", params.Strategy)
	fmt.Fprintf(progress, "Substitution table: %s (%d rows)\n", name, table.Len())
	fmt.Fprintf(progress, "Tolerance: %g + %g ppm\n", params.Tolerance, params.PPM)

	// Masked copies keep peak indices aligned with the input
	masked := spectra
	fc := cfg.FilterConfig()
	if !fc.IsZero() {
		masked = make([]*core.Spectrum, len(spectra))
		kept, total := 0, 0
		for i, spec := range spectra {
			if masked[i], err = fc.Apply(spec); err != nil {
				return err
			}
			kept += filter.CountActive(masked[i])
			total += spec.Len()
		}
		fmt.Fprintf(progress, "Peak filter: %d of %d peaks kept\n", kept, total)
	}

	n := cfg.Workers
	if n == 0 {
		n = runtime.NumCPU()
	}
	results := isotopologue.FindAll(ctx, masked, table, params, n)
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := 0
	groups := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", res.Err)
			failed++
			continue
		}
		groups += len(res.Groups)
	}

	if err := writeJSON(out.jsonPath, spectra, results); err != nil {
		return err
	}

	if out.dbPath != "" {
		if err := writeDB(out.dbPath, name, cfg, spectra, results); err != nil {
			return err
		}
	}

	fmt.Fprintf(progress, "\nGrouping complete!\n")
	fmt.Fprintf(progress, "Processed: %d spectra\n", len(spectra)-failed)
	fmt.Fprintf(progress, "Groups: %d\n", groups)
	if failed > 0 {
		fmt.Fprintf(progress, "Skipped: %d spectra (validation errors)\n", failed)
	}
	if out.jsonPath != "" {
		fmt.Fprintf(progress, "Output: %s\n", out.jsonPath)
	}
	if out.dbPath != "" {
		fmt.Fprintf(progress, "Database: %s\n", out.dbPath)
	}
	return nil
}

// toJSON converts results to their JSON form. m/z values come from the
// unmasked input spectra.
func toJSON(spectra []*core.Spectrum, results []isotopologue.Result) []spectrumJSON {
	out := make([]spectrumJSON, len(results))
	for i, res := range results {
		spec := spectra[i]
		out[i] = spectrumJSON{
			Spectrum:   spec.Label(),
			SourceFile: spec.SourceFile,
			Groups:     []groupJSON{},
		}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			continue
		}
		for _, g := range res.Groups {
			gj := groupJSON{
				Indices: g.Indices,
				MZ:      make([]float64, len(g.Indices)),
				Labels:  make([][]string, len(g.Indices)),
			}
			for k, idx := range g.Indices {
				gj.MZ[k] = spec.Peaks[idx].MZ
				gj.Labels[k] = g.Labels[k]
				if gj.Labels[k] == nil {
					gj.Labels[k] = []string{}
				}
			}
			out[i].Groups = append(out[i].Groups, gj)
		}
	}
	return out
}

func writeJSON(path string, spectra []*core.Spectrum, results []isotopologue.Result) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(spectra, results)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func writeDB(path, table string, cfg config.Config, spectra []*core.Spectrum, results []isotopologue.Result) error {
	writer, err := sqlite.NewWriter(path, sqlite.RunInfo{
		Strategy:  cfg.Strategy,
		Table:     table,
		Tolerance: cfg.Tolerance,
		PPM:       cfg.PPM,
		Charge:    cfg.Charge,
	})
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if err := writer.WriteResult(spectra[i], res.Groups); err != nil {
			writer.Close()
			return fmt.Errorf("failed to write spectrum %s: %w", spectra[i].Label(), err)
		}
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	return nil
}
