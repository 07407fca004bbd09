// Package peaklist reads plain two-column peak lists
package peaklist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

// Read parses a peak list with one "mz intensity" pair per line. Columns
// may be separated by whitespace, tabs or commas. Lines starting with '#'
// and blank lines are skipped. A first data line that does not parse as
// numbers is treated as a header.
//
// The peaks are returned in file order; sortedness is checked by the
// grouper, not here.
func Read(r io.Reader, name string) (*core.Spectrum, error) {
	spec := &core.Spectrum{
		Name:         name,
		SourceFormat: "peaklist",
		Peaks:        []core.Peak{},
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	seenData := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == ';'
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected m/z and intensity, got %q", lineNum, line)
		}

		mz, errMZ := parseValue(fields[0])
		intensity, errI := parseValue(fields[1])
		if errMZ != nil || errI != nil {
			if !seenData {
				// Header line
				seenData = true
				continue
			}
			if errMZ != nil {
				return nil, fmt.Errorf("line %d: invalid m/z value: %w", lineNum, errMZ)
			}
			return nil, fmt.Errorf("line %d: invalid intensity value: %w", lineNum, errI)
		}
		seenData = true

		spec.Peaks = append(spec.Peaks, core.Peak{MZ: mz, Intensity: intensity})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseValue accepts plain floats, "NA" and "NaN" (missing m/z).
func parseValue(s string) (float64, error) {
	s = strings.Trim(s, "\"")
	if strings.EqualFold(s, "NA") {
		s = "NaN"
	}
	return strconv.ParseFloat(s, 64)
}

// ReadFile reads a peak list from disk. The spectrum is named after the
// file without its extension.
func ReadFile(path string) (*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peak list: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	spec, err := Read(f, strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	spec.SourceFile = path
	return spec, nil
}
