// Package core provides the peak-list models and validation logic
// shared by the isogroup readers, the grouping engine and the writers.
package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrMissingMZ is wrapped by ValidationError when a peak has a NaN m/z.
	ErrMissingMZ = errors.New("missing m/z value")
	// ErrUnsortedPeaks is wrapped by ValidationError when m/z values decrease.
	ErrUnsortedPeaks = errors.New("peaks are not sorted by m/z")
)

// Spectrum represents a single peak list with its associated metadata.
type Spectrum struct {
	Name          string   // Identifier, e.g. scan id or library entry name
	Charge        int      // Precursor charge state (0 if unknown)
	PrecursorMZ   float64  // Precursor m/z (0 if unknown)
	RetentionTime *float64 // RT in seconds, if known
	Peaks         []Peak   // Peaks, non-decreasing by m/z

	// Internal tracking
	SourceFile   string
	SourceFormat string // peaklist, msp, mzml
}

// Peak represents a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error // Sentinel describing the first failure, if any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidatePeaks checks the preconditions of isotopologue grouping: no
// missing m/z values and m/z non-decreasing. Nothing is repaired.
func (s *Spectrum) ValidatePeaks() error {
	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) {
			return &ValidationError{
				Field:   "Peaks",
				Message: fmt.Sprintf("peak %d has no m/z value", i),
				Err:     ErrMissingMZ,
			}
		}
	}
	if !s.ArePeaksSorted() {
		return &ValidationError{
			Field:   "Peaks",
			Message: "peaks must be sorted by m/z",
			Err:     ErrUnsortedPeaks,
		}
	}
	return nil
}

// Validate runs ValidatePeaks and additionally reports infinite values,
// negative m/z and a negative charge. All problems are collected into a
// single error.
func (s *Spectrum) Validate() error {
	var errs []string
	var first error

	if s.Charge < 0 {
		errs = append(errs, "charge must not be negative")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) {
			errs = append(errs, fmt.Sprintf("peak %d has no m/z value", i))
			if first == nil {
				first = ErrMissingMZ
			}
			continue
		}
		if math.IsInf(peak.MZ, 0) || peak.MZ < 0 {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
		if first == nil {
			first = ErrUnsortedPeaks
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
			Err:     first,
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
// NaN values are skipped.
func (s *Spectrum) ArePeaksSorted() bool {
	prev := math.Inf(-1)
	for _, p := range s.Peaks {
		if math.IsNaN(p.MZ) {
			continue
		}
		if p.MZ < prev {
			return false
		}
		prev = p.MZ
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order. Readers call this for
// formats that do not guarantee ordering; the grouping engine never does.
func (s *Spectrum) SortPeaks() {
	sort.SliceStable(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].MZ < s.Peaks[j].MZ
	})
}

// MZs returns the m/z values of all peaks.
func (s *Spectrum) MZs() []float64 {
	out := make([]float64, len(s.Peaks))
	for i, p := range s.Peaks {
		out[i] = p.MZ
	}
	return out
}

// Intensities returns the intensities of all peaks.
func (s *Spectrum) Intensities() []float64 {
	out := make([]float64, len(s.Peaks))
	for i, p := range s.Peaks {
		out[i] = p.Intensity
	}
	return out
}

// Len returns the number of peaks.
func (s *Spectrum) Len() int {
	return len(s.Peaks)
}

// Clone returns a deep copy of the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	c := *s
	c.Peaks = make([]Peak, len(s.Peaks))
	copy(c.Peaks, s.Peaks)
	if s.RetentionTime != nil {
		rt := *s.RetentionTime
		c.RetentionTime = &rt
	}
	return &c
}

// Label returns a human readable label, falling back to the source file.
func (s *Spectrum) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.SourceFile != "" {
		return s.SourceFile
	}
	return "unnamed"
}
