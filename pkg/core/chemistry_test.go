package core

import (
	"math"
	"testing"
)

func TestCompoundMass(t *testing.T) {
	tests := []struct {
		name   string
		mz     float64
		charge float64
		want   float64
	}{
		{"charge 1", 100.5, 1, 100.5},
		{"charge 2", 100.5, 2, 201.0},
		{"charge 3", 300.0, 3, 900.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompoundMass(tt.mz, tt.charge)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CompoundMass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsotopologueMZ(t *testing.T) {
	tests := []struct {
		name     string
		mz       float64
		massDiff float64
		charge   float64
		want     float64
	}{
		{"13C charge 1", 100.0, MassDiff13C, 1, 101.0033548378},
		{"13C charge 2", 100.0, MassDiff13C, 2, 100.5016774189},
		{"34S charge 1", 250.0, MassDiff34S, 1, 251.9957959},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsotopologueMZ(tt.mz, tt.massDiff, tt.charge)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IsotopologueMZ() = %.10f, want %.10f", got, tt.want)
			}
		})
	}
}

func TestNeutralMass(t *testing.T) {
	got := NeutralMass(101.00727646688, 1)
	if math.Abs(got-100.0) > 1e-9 {
		t.Errorf("NeutralMass() = %.9f, want 100.0", got)
	}

	got = NeutralMass(51.00727646688, 2)
	if math.Abs(got-100.0) > 1e-9 {
		t.Errorf("NeutralMass() charge 2 = %.9f, want 100.0", got)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
