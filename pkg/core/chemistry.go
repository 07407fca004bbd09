// Package core provides chemistry constants and mass conversions
package core

import "math"

// Monoisotopic mass differences between heavy and light isotopes
const (
	MassDiff2H   = 1.0062767     // 2H - 1H
	MassDiff13C  = 1.0033548378  // 13C - 12C
	MassDiff15N  = 0.9970348934  // 15N - 14N
	MassDiff17O  = 1.0042171     // 17O - 16O
	MassDiff18O  = 2.0042449     // 18O - 16O
	MassDiff33S  = 0.9993878     // 33S - 32S
	MassDiff34S  = 1.9957959     // 34S - 32S
	MassDiff37Cl = 1.9970499     // 37Cl - 35Cl
	MassDiff81Br = 1.9979535     // 81Br - 79Br
	MassDiff41K  = 1.9981183     // 41K - 39K
	MassDiff30Si = 1.9967700     // 30Si - 28Si

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
)

// CompoundMass converts an m/z value to the mass axis the substitution
// tables are defined on (mz * charge).
func CompoundMass(mz, charge float64) float64 {
	return mz * charge
}

// IsotopologueMZ returns the m/z at which an isotopologue of a compound
// observed at mz is expected, given the substitution mass difference.
func IsotopologueMZ(mz, massDiff, charge float64) float64 {
	return mz + massDiff/charge
}

// NeutralMass computes the neutral mass of a protonated ion.
func NeutralMass(mz float64, charge int) float64 {
	return (mz - ProtonMass) * float64(charge)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
