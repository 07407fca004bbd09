// Package substitution provides isotope substitution definitions and the
// intensity-ratio bounds used to accept isotopologue peaks.
package substitution

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsortedTable is returned when rows are not ordered by MassDiff.
	ErrUnsortedTable = errors.New("substitution: table not sorted by mass difference")
	// ErrInvalidRow is returned for rows with missing values or an empty mass range.
	ErrInvalidRow = errors.New("substitution: invalid row")
)

// Row is one isotope substitution valid over the compound-mass range
// (LeftEnd, RightEnd]. The ratio of isotopologue to monoisotopic intensity
// is expected between the lower and upper bound lines.
type Row struct {
	Name           string  `yaml:"name"`
	MassDiff       float64 `yaml:"massDiff"`
	MinMass        float64 `yaml:"minMass"` // Smallest compound mass the substitution was observed for
	MaxMass        float64 `yaml:"maxMass"` // Largest compound mass the substitution was observed for
	LeftEnd        float64 `yaml:"leftEnd"`
	RightEnd       float64 `yaml:"rightEnd"`
	LowerSlope     float64 `yaml:"lowerSlope"`
	LowerIntercept float64 `yaml:"lowerIntercept"`
	UpperSlope     float64 `yaml:"upperSlope"`
	UpperIntercept float64 `yaml:"upperIntercept"`
}

// Bounds returns the lower and upper intensity ratio at compound mass.
func (r *Row) Bounds(mass float64) (lower, upper float64) {
	lower = r.LowerSlope*mass + r.LowerIntercept
	upper = r.UpperSlope*mass + r.UpperIntercept
	return lower, upper
}

// Accepts reports whether a peak with the given intensity is a plausible
// isotopologue of a seed with seedIntensity at compound mass.
func (r *Row) Accepts(mass, seedIntensity, intensity float64) bool {
	lower, upper := r.Bounds(mass)
	return lower*seedIntensity <= intensity && intensity <= upper*seedIntensity
}

// Covers reports whether mass lies in (LeftEnd, RightEnd].
func (r *Row) Covers(mass float64) bool {
	return r.LeftEnd < mass && mass <= r.RightEnd
}

func (r *Row) validate() error {
	for _, v := range []float64{r.MassDiff, r.LeftEnd, r.RightEnd,
		r.LowerSlope, r.LowerIntercept, r.UpperSlope, r.UpperIntercept} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s has a missing value", ErrInvalidRow, r.Name)
		}
	}
	if r.LeftEnd >= r.RightEnd {
		return fmt.Errorf("%w: %s has empty mass range (%g, %g]",
			ErrInvalidRow, r.Name, r.LeftEnd, r.RightEnd)
	}
	return nil
}

// Table is an ordered list of substitution rows, non-decreasing by MassDiff.
type Table []Row

// Validate checks every row and the MassDiff ordering.
func (t Table) Validate() error {
	for i := range t {
		if err := t[i].validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if i > 0 && t[i].MassDiff < t[i-1].MassDiff {
			return fmt.Errorf("%w: row %d (%s) %g < row %d (%s) %g", ErrUnsortedTable,
				i, t[i].Name, t[i].MassDiff, i-1, t[i-1].Name, t[i-1].MassDiff)
		}
	}
	return nil
}

// Applicable returns the rows whose mass range covers mass, in table order.
func (t Table) Applicable(mass float64) Table {
	var out Table
	for i := range t {
		if t[i].Covers(mass) {
			out = append(out, t[i])
		}
	}
	return out
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t)
}

// Names returns the distinct substitution names in table order.
func (t Table) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names
}
