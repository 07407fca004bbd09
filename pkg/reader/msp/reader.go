// Package msp provides a streaming reader for MSP (NIST) spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	source      string
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader. source is recorded as SourceFile on
// every spectrum.
func NewReader(r io.Reader, source string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{
		scanner: scanner,
		source:  source,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining spectrum.
func (r *Reader) ReadAll() ([]*core.Spectrum, error) {
	var out []*core.Spectrum
	for r.Next() {
		out = append(out, r.Spectrum())
	}
	return out, r.Err()
}

// readSpectrum reads a single spectrum entry from the MSP file
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{
		SourceFormat: "msp",
		SourceFile:   r.source,
		Peaks:        []core.Peak{},
	}

	started := false
	numPeaks := -1
	peaksRead := 0

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" {
			if !started {
				continue
			}
			// A blank line ends the entry
			break
		}
		if strings.HasPrefix(line, "#") && !started {
			continue
		}
		started = true

		if numPeaks < 0 {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
			}
			n, isCount, err := r.parseHeader(spec, strings.TrimSpace(key), strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			if isCount {
				numPeaks = n
				if numPeaks == 0 {
					return spec, nil
				}
			}
			continue
		}

		// Peak lines may hold several "mz intensity" pairs separated by ';'
		for _, item := range strings.Split(line, ";") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			peak, err := parsePeak(item)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, peak)
			peaksRead++
		}
		if peaksRead >= numPeaks {
			return spec, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if !started {
		return nil, io.EOF
	}
	if numPeaks < 0 {
		return nil, fmt.Errorf("line %d: entry %q has no 'Num Peaks' field", r.lineNum, spec.Label())
	}
	if peaksRead < numPeaks {
		return nil, fmt.Errorf("line %d: entry %q declares %d peaks, found %d", r.lineNum, spec.Label(), numPeaks, peaksRead)
	}
	return spec, nil
}

// parseHeader applies one header field. It reports the peak count when the
// field is 'Num Peaks'.
func (r *Reader) parseHeader(spec *core.Spectrum, key, value string) (int, bool, error) {
	switch strings.ToLower(key) {
	case "name":
		spec.Name = value
		// Peptide libraries encode the charge as SEQUENCE/CHARGE
		if i := strings.LastIndex(value, "/"); i > 0 {
			if z, err := strconv.Atoi(value[i+1:]); err == nil && spec.Charge == 0 {
				spec.Charge = z
			}
		}

	case "num peaks", "numpeaks", "num_peaks":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, false, fmt.Errorf("invalid num peaks %q", value)
		}
		return n, true, nil

	case "precursormz", "precursor_mz", "prec_mz":
		mz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid precursor m/z %q: %w", value, err)
		}
		spec.PrecursorMZ = mz

	case "charge", "precursor_charge":
		z, err := parseCharge(value)
		if err != nil {
			return 0, false, err
		}
		spec.Charge = z

	case "retentiontime", "retention_time", "rt":
		// Values may carry a unit suffix such as "12.3 min"
		if f := strings.Fields(value); len(f) > 0 {
			if rt, err := strconv.ParseFloat(f[0], 64); err == nil {
				spec.RetentionTime = &rt
			}
		}

	case "comment":
		parseComment(spec, value)
	}
	return 0, false, nil
}

// parseCharge accepts "2", "+2", "2+" and "1-". The sign is dropped.
func parseCharge(value string) (int, error) {
	v := strings.Trim(value, "+- ")
	z, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid charge %q", value)
	}
	return z, nil
}

// parseComment extracts metadata from the Comment field
func parseComment(spec *core.Spectrum, comment string) {
	// Comment format: key=value key=value...
	// Example: Parent=414.71 Collision_energy=35 iRT=61.01
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, "\"")

		switch key {
		case "Parent":
			if spec.PrecursorMZ != 0 {
				continue
			}
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				spec.PrecursorMZ = mz
			}

		case "iRT", "RetentionTime", "RT":
			if spec.RetentionTime != nil {
				continue
			}
			if rt, err := strconv.ParseFloat(value, 64); err == nil {
				spec.RetentionTime = &rt
			}
		}
	}
}

// parsePeak parses a single peak (format: "mz intensity [\"annotation\"]")
func parsePeak(item string) (core.Peak, error) {
	fields := strings.FieldsFunc(item, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format %q, expected at least 2 fields", item)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}
	if math.IsInf(intensity, 0) {
		return core.Peak{}, fmt.Errorf("infinite intensity at m/z %v", mz)
	}

	// Annotations are ignored
	return core.Peak{MZ: mz, Intensity: intensity}, nil
}
