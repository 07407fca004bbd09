package core

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr error
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Name: "scan=1",
				Peaks: []Peak{
					{MZ: 100.0, Intensity: 1000.0},
					{MZ: 200.0, Intensity: 2000.0},
				},
			},
		},
		{
			name: "zero and NaN intensity allowed",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: 100.0, Intensity: 0},
					{MZ: 100.0, Intensity: math.NaN()},
					{MZ: 200.0, Intensity: -5},
				},
			},
		},
		{
			name: "empty spectrum",
			spec: &Spectrum{},
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: 200.0, Intensity: 2000.0},
					{MZ: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: ErrUnsortedPeaks,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: math.NaN(), Intensity: 1000.0},
				},
			},
			wantErr: ErrMissingMZ,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.ValidatePeaks()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePeaks() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePeaks() error = %v, want %v", err, tt.wantErr)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("ValidatePeaks() error is not a *ValidationError: %T", err)
			}
		})
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	spec := &Spectrum{
		Charge: -1,
		Peaks: []Peak{
			{MZ: 200.0, Intensity: math.Inf(1)},
			{MZ: 100.0, Intensity: 1.0},
		},
	}

	err := spec.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrUnsortedPeaks) {
		t.Errorf("expected ErrUnsortedPeaks, got %v", err)
	}

	ok := &Spectrum{Peaks: []Peak{{MZ: 1, Intensity: 1}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300.0, Intensity: 100.0},
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.0},
		},
	}

	spec.SortPeaks()

	if diff := cmp.Diff([]float64{100.0, 200.0, 300.0}, spec.MZs()); diff != "" {
		t.Errorf("MZs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{200.0, 150.0, 100.0}, spec.Intensities()); diff != "" {
		t.Errorf("Intensities() mismatch (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	rt := 12.5
	spec := &Spectrum{
		Name:          "a",
		RetentionTime: &rt,
		Peaks:         []Peak{{MZ: 1, Intensity: 2}},
	}

	c := spec.Clone()
	c.Peaks[0].Intensity = 0
	*c.RetentionTime = 1

	if spec.Peaks[0].Intensity != 2 {
		t.Error("Clone shares peak storage")
	}
	if *spec.RetentionTime != 12.5 {
		t.Error("Clone shares retention time")
	}
}

func TestSpectrumLabel(t *testing.T) {
	tests := []struct {
		spec Spectrum
		want string
	}{
		{Spectrum{Name: "scan=3"}, "scan=3"},
		{Spectrum{SourceFile: "peaks.txt"}, "peaks.txt"},
		{Spectrum{}, "unnamed"},
	}

	for _, tt := range tests {
		if got := tt.spec.Label(); got != tt.want {
			t.Errorf("Label() = %s, want %s", got, tt.want)
		}
	}
}
