package substitution

import (
	"math"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

// DefaultTable is the name of the built-in table.
const DefaultTable = "HMDB"

// band is one piece of a piecewise-linear bound over (left, right].
type band struct {
	left, right    float64
	lowerSlope     float64
	lowerIntercept float64
	upperSlope     float64
	upperIntercept float64
}

type definition struct {
	name             string
	massDiff         float64
	minMass, maxMass float64
	bands            []band
}

var inf = math.Inf(1)

// hmdbDefinitions holds intensity-ratio envelopes fitted to the isotope
// patterns of HMDB metabolites. Listed in ascending massDiff order.
var hmdbDefinitions = []definition{
	{"[15N]1", core.MassDiff15N, 17, 2000, []band{
		{0, inf, 0, 0, 0.00012, 0.004},
	}},
	{"[33S]1", core.MassDiff33S, 34, 2000, []band{
		{0, inf, 0, 0, 0.00008, 0.008},
	}},
	{"[13C]1", core.MassDiff13C, 16, 2000, []band{
		{0, 250, 0.00020, 0, 0.00100, 0.015},
		{250, 500, 0.00028, -0.02, 0.00095, 0.0275},
		{500, 1000, 0.00032, -0.04, 0.00090, 0.0525},
		{1000, inf, 0.00035, -0.07, 0.00088, 0.0725},
	}},
	{"[17O]1", core.MassDiff17O, 18, 2000, []band{
		{0, inf, 0, 0, 0.000025, 0.0004},
	}},
	{"[2H]1", core.MassDiff2H, 2, 2000, []band{
		{0, inf, 0, 0, 0.000012, 0.0003},
	}},
	{"[34S]1", core.MassDiff34S, 34, 2000, []band{
		{0, inf, 0, 0, 0.00045, 0.045},
	}},
	{"[37Cl]1", core.MassDiff37Cl, 36, 2000, []band{
		{0, inf, 0, 0, 0.003, 0.32},
	}},
	{"[81Br]1", core.MassDiff81Br, 80, 2000, []band{
		{0, inf, 0, 0, 0.004, 0.98},
	}},
	{"[41K]1", core.MassDiff41K, 39, 2000, []band{
		{0, inf, 0, 0, 0, 0.075},
	}},
	{"[18O]1", core.MassDiff18O, 18, 2000, []band{
		{0, inf, 0, 0, 0.00015, 0.004},
	}},
	{"[13C]2", 2 * core.MassDiff13C, 28, 2000, []band{
		{0, 250, 0, 0, 0.00012, 0},
		{250, 500, 0.00001, -0.0025, 0.00024, -0.03},
		{500, 1000, 0.00003, -0.0125, 0.00041, -0.115},
		{1000, inf, 0.00006, -0.0425, 0.0006, -0.305},
	}},
	{"[13C]3", 3 * core.MassDiff13C, 40, 2000, []band{
		{0, 500, 0, 0, 0.00002, 0},
		{500, inf, 0, 0, 0.00008, -0.03},
	}},
}

func hmdbTable() Table {
	var t Table
	for _, d := range hmdbDefinitions {
		for _, b := range d.bands {
			t = append(t, Row{
				Name:           d.name,
				MassDiff:       d.massDiff,
				MinMass:        d.minMass,
				MaxMass:        d.maxMass,
				LeftEnd:        b.left,
				RightEnd:       b.right,
				LowerSlope:     b.lowerSlope,
				LowerIntercept: b.lowerIntercept,
				UpperSlope:     b.upperSlope,
				UpperIntercept: b.upperIntercept,
			})
		}
	}
	return t
}
