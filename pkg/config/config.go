// Package config loads grouping settings from YAML files
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/isogroup/pkg/filter"
	"github.com/ChrisMcGann/isogroup/pkg/isotopologue"
	"github.com/ChrisMcGann/isogroup/pkg/substitution"
)

// Input formats accepted by the group command
const (
	FormatAuto     = "auto"
	FormatPeakList = "peaklist"
	FormatMSP      = "msp"
	FormatMzML     = "mzml"
)

// FilterConfig mirrors filter.Config in the configuration file.
type FilterConfig struct {
	MinIntensity    float64 `yaml:"minIntensity"`
	IntensityCutoff float64 `yaml:"intensityCutoff"`
	TopN            int     `yaml:"topN"`
	MinMZ           float64 `yaml:"minMz"`
	MaxMZ           float64 `yaml:"maxMz"`
}

// Config holds every setting of a grouping run.
type Config struct {
	Table          string       `yaml:"table"`
	TableFile      string       `yaml:"tableFile"`
	Strategy       string       `yaml:"strategy"`
	Tolerance      float64      `yaml:"tolerance"`
	PPM            float64      `yaml:"ppm"`
	Charge         float64      `yaml:"charge"`
	SeedMZ         []float64    `yaml:"seedMz"`
	SkipValidation bool         `yaml:"skipValidation"`
	Workers        int          `yaml:"workers"`
	Format         string       `yaml:"format"`
	MSLevel        int          `yaml:"msLevel"`
	Filter         FilterConfig `yaml:"filter"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	p := isotopologue.DefaultParams()
	return Config{
		Table:     substitution.DefaultTable,
		Strategy:  p.Strategy.String(),
		Tolerance: p.Tolerance,
		PPM:       p.PPM,
		Charge:    p.Charge,
		Workers:   1,
		Format:    FormatAuto,
		MSLevel:   1,
	}
}

// Read decodes a YAML document on top of the defaults. Unknown keys are
// rejected.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a configuration file. A relative TableFile is resolved
// against the directory of the configuration file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.TableFile != "" && !filepath.IsAbs(cfg.TableFile) {
		cfg.TableFile = filepath.Join(filepath.Dir(path), cfg.TableFile)
	}
	return cfg, nil
}

// Validate checks settings that the grouping parameters do not cover.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case FormatAuto, FormatPeakList, FormatMSP, FormatMzML:
	default:
		return fmt.Errorf("unknown input format %q", c.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MSLevel < 0 {
		return fmt.Errorf("msLevel must be >= 0, got %d", c.MSLevel)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	f := c.FilterConfig()
	return f.Validate()
}

// Params converts the configuration to grouping parameters.
func (c *Config) Params() (isotopologue.Params, error) {
	strategy, err := isotopologue.ParseStrategy(c.Strategy)
	if err != nil {
		return isotopologue.Params{}, err
	}
	p := isotopologue.Params{
		Tolerance:      c.Tolerance,
		PPM:            c.PPM,
		SeedMZ:         c.SeedMZ,
		Charge:         c.Charge,
		SkipValidation: c.SkipValidation,
		Strategy:       strategy,
	}
	if err := p.Validate(); err != nil {
		return isotopologue.Params{}, err
	}
	return p, nil
}

// FilterConfig returns the peak masking settings.
func (c *Config) FilterConfig() filter.Config {
	return filter.Config{
		MinIntensity:    c.Filter.MinIntensity,
		IntensityCutoff: c.Filter.IntensityCutoff,
		TopN:            c.Filter.TopN,
		MinMZ:           c.Filter.MinMZ,
		MaxMZ:           c.Filter.MaxMZ,
	}
}

// LoadTable returns the substitution table selected by the configuration:
// TableFile when set, otherwise the registered table named Table. Files
// ending in .csv are read as CSV, everything else as YAML.
func (c *Config) LoadTable() (string, substitution.Table, error) {
	if c.TableFile == "" {
		t, err := substitution.Lookup(c.Table)
		return c.Table, t, err
	}

	f, err := os.Open(c.TableFile)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open substitution table: %w", err)
	}
	defer f.Close()

	base := filepath.Base(c.TableFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if strings.EqualFold(filepath.Ext(base), ".csv") {
		t, err := substitution.ReadCSV(f)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", c.TableFile, err)
		}
		return name, t, nil
	}

	docName, t, err := substitution.ReadYAML(f)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", c.TableFile, err)
	}
	if docName != "" {
		name = docName
	}
	return name, t, nil
}
