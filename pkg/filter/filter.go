// Package filter provides peak masking applied before grouping
package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

// Config holds filtering configuration. Excluded peaks keep their position
// and m/z but get intensity 0, so peak indices stay valid and the grouper
// never uses them.
type Config struct {
	MinIntensity    float64 // Mask peaks below this absolute intensity (0 = off)
	IntensityCutoff float64 // Mask peaks below this % of base peak (0 = off)
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	MinMZ           float64 // Mask peaks below this m/z (0 = off)
	MaxMZ           float64 // Mask peaks above this m/z (0 = off)
}

// IsZero reports whether no filter is configured.
func (c *Config) IsZero() bool {
	return c.MinIntensity == 0 && c.IntensityCutoff == 0 && c.TopN == 0 &&
		c.MinMZ == 0 && c.MaxMZ == 0
}

// Validate checks the configured ranges.
func (c *Config) Validate() error {
	if c.MinIntensity < 0 {
		return &core.ValidationError{Field: "MinIntensity", Message: "must be >= 0"}
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return &core.ValidationError{Field: "IntensityCutoff", Message: "must be between 0 and 100"}
	}
	if c.TopN < 0 {
		return &core.ValidationError{Field: "TopN", Message: "must be >= 0"}
	}
	if c.MinMZ < 0 || c.MaxMZ < 0 {
		return &core.ValidationError{Field: "MinMZ/MaxMZ", Message: "must be >= 0"}
	}
	if c.MaxMZ > 0 && c.MinMZ > c.MaxMZ {
		return &core.ValidationError{
			Field:   "MinMZ/MaxMZ",
			Message: fmt.Sprintf("min %.4f above max %.4f", c.MinMZ, c.MaxMZ),
		}
	}
	return nil
}

// Apply returns a copy of spec with all configured filters applied. The
// input spectrum is not modified.
func (c *Config) Apply(spec *core.Spectrum) (*core.Spectrum, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := spec.Clone()

	// m/z range first so TopN ranks only peaks inside it
	if c.MinMZ > 0 || c.MaxMZ > 0 {
		c.maskByMZ(out)
	}

	if c.MinIntensity > 0 {
		mask(out, func(p core.Peak) bool { return p.Intensity < c.MinIntensity })
	}

	if c.IntensityCutoff > 0 {
		c.maskByIntensity(out)
	}

	if c.TopN > 0 {
		c.maskTopN(out)
	}

	return out, nil
}

func mask(spec *core.Spectrum, drop func(core.Peak) bool) {
	for i := range spec.Peaks {
		if drop(spec.Peaks[i]) {
			spec.Peaks[i].Intensity = 0
		}
	}
}

func (c *Config) maskByMZ(spec *core.Spectrum) {
	hi := c.MaxMZ
	if hi == 0 {
		hi = math.Inf(1)
	}
	mask(spec, func(p core.Peak) bool { return p.MZ < c.MinMZ || p.MZ > hi })
}

// maskByIntensity masks peaks below the intensity cutoff percentage
func (c *Config) maskByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	// Find maximum intensity
	maxIntensity := 0.0
	for _, peak := range spec.Peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	threshold := (c.IntensityCutoff / 100.0) * maxIntensity
	mask(spec, func(p core.Peak) bool { return p.Intensity < threshold })
}

// maskTopN keeps only the N most intense peaks. Ties at the cutoff go to
// the lower m/z.
func (c *Config) maskTopN(spec *core.Spectrum) {
	order := make([]int, 0, len(spec.Peaks))
	for i, p := range spec.Peaks {
		if p.Intensity > 0 {
			order = append(order, i)
		}
	}
	if len(order) <= c.TopN {
		return
	}

	sort.SliceStable(order, func(i, j int) bool {
		return spec.Peaks[order[i]].Intensity > spec.Peaks[order[j]].Intensity
	})

	for _, i := range order[c.TopN:] {
		spec.Peaks[i].Intensity = 0
	}
}

// CountActive returns the number of peaks with positive intensity.
func CountActive(spec *core.Spectrum) int {
	n := 0
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			n++
		}
	}
	return n
}
