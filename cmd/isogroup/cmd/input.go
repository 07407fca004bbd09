package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/isogroup/pkg/config"
	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/reader/msp"
	"github.com/ChrisMcGann/isogroup/pkg/reader/mzml"
	"github.com/ChrisMcGann/isogroup/pkg/reader/peaklist"
)

// detectFormat resolves "auto" from the file extension.
func detectFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != config.FormatAuto {
		switch format {
		case config.FormatPeakList, config.FormatMSP, config.FormatMzML:
			return format, nil
		}
		return "", fmt.Errorf("invalid input format '%s', must be peaklist, msp or mzml", format)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".msp":
		return config.FormatMSP, nil
	case ".mzml":
		return config.FormatMzML, nil
	default:
		return config.FormatPeakList, nil
	}
}

// readSpectra reads every spectrum of one input file.
func readSpectra(path, format string, level int) ([]*core.Spectrum, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", path)
	}

	format, err := detectFormat(path, format)
	if err != nil {
		return nil, err
	}

	if format == config.FormatPeakList {
		spec, err := peaklist.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []*core.Spectrum{spec}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var spectra []*core.Spectrum
	switch format {
	case config.FormatMSP:
		spectra, err = msp.NewReader(f, path).ReadAll()
	case config.FormatMzML:
		spectra, err = mzml.NewReader(f, path, mzml.Options{MSLevel: level}).ReadAll()
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return spectra, nil
}

// readAll reads several input files in order.
func readAll(paths []string, format string, level int) ([]*core.Spectrum, error) {
	var all []*core.Spectrum
	for _, path := range paths {
		spectra, err := readSpectra(path, format, level)
		if err != nil {
			return nil, err
		}
		all = append(all, spectra...)
	}
	return all, nil
}
