// Package isotopologue groups the peaks of a spectrum into sets that are
// isotopologues of the same compound: a monoisotopic seed peak followed by
// the peaks explained by isotope substitutions of that seed.
package isotopologue

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidParams is returned for out-of-range grouping parameters.
var ErrInvalidParams = errors.New("isotopologue: invalid parameters")

// Strategy selects how candidate isotopologue masses are matched against
// the remaining peaks. All strategies share the seed scan and the
// intensity test; they differ in how many (peak, substitution) pairs
// survive the mass matching.
type Strategy int

const (
	// Exhaustive accepts every peak inside the tolerance window of every
	// candidate mass. Reference behavior, quadratic cost.
	Exhaustive Strategy = iota
	// SingleClosest matches each candidate mass to its nearest peak.
	SingleClosest
	// ReverseClosest matches each peak to its nearest candidate mass.
	ReverseClosest
	// Grouped merges candidate masses within tolerance of each other into
	// clusters and matches each peak to the nearest cluster mean. Peaks near
	// a cluster edge can be missed.
	Grouped
)

var strategyNames = map[Strategy]string{
	Exhaustive:     "exhaustive",
	SingleClosest:  "single",
	ReverseClosest: "reverse",
	Grouped:        "grouped",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name as printed by String.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidParams, name)
}

// Strategies returns all strategy names in declaration order.
func Strategies() []string {
	return []string{
		Exhaustive.String(), SingleClosest.String(),
		ReverseClosest.String(), Grouped.String(),
	}
}

// Params controls a grouping run.
type Params struct {
	Tolerance float64 // Absolute m/z tolerance
	PPM       float64 // Relative m/z tolerance in parts per million

	// SeedMZ restricts the scan to the peaks nearest to these m/z values,
	// in the given order. Empty means every peak is a potential seed.
	SeedMZ []float64

	Charge         float64 // Charge used to convert m/z to compound mass
	SkipValidation bool    // Skip the sortedness and missing m/z checks
	Strategy       Strategy
}

// DefaultParams returns the parameters used when nothing else is set.
func DefaultParams() Params {
	return Params{
		Tolerance: 0,
		PPM:       20,
		Charge:    1,
		Strategy:  Exhaustive,
	}
}

// Validate checks the parameter ranges.
func (p *Params) Validate() error {
	var errs []string
	if math.IsNaN(p.Tolerance) || p.Tolerance < 0 {
		errs = append(errs, "tolerance must be >= 0")
	}
	if math.IsNaN(p.PPM) || p.PPM < 0 {
		errs = append(errs, "ppm must be >= 0")
	}
	if math.IsNaN(p.Charge) || math.IsInf(p.Charge, 0) || p.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if _, ok := strategyNames[p.Strategy]; !ok {
		errs = append(errs, fmt.Sprintf("unknown strategy %d", int(p.Strategy)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(errs, "; "))
	}
	return nil
}
