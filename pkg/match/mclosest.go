package match

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MClosest matches rows of x against rows of table. A table row is
// admissible for x[i] when every column c satisfies
// |x[i][c] - table[k][c]| <= Window(x[i][c], tolerance[c], ppm[c]);
// of the admissible rows the one with the smallest Euclidean distance is
// reported, the first one on ties. tolerance and ppm are recycled to the
// column count.
//
// Every pair of rows is compared, so this is meant for small tables.
func MClosest(x, table [][]float64, tolerance, ppm []float64) ([]Index, error) {
	if len(tolerance) == 0 || len(ppm) == 0 {
		return nil, fmt.Errorf("%w: empty tolerance or ppm", ErrDimensionMismatch)
	}
	ncol, err := columns(x, table)
	if err != nil {
		return nil, err
	}

	tol := recycle(tolerance, ncol)
	rel := recycle(ppm, ncol)

	out := make([]Index, len(x))
	for i, row := range x {
		best := math.Inf(1)
		for k, ref := range table {
			if !within(row, ref, tol, rel) {
				continue
			}
			if d := floats.Distance(row, ref, 2); d < best {
				best = d
				out[i] = Index{Pos: k, OK: true}
			}
		}
	}
	return out, nil
}

func within(row, ref, tol, rel []float64) bool {
	for c := range row {
		if !(math.Abs(row[c]-ref[c]) <= Window(row[c], tol[c], rel[c])) {
			return false
		}
	}
	return true
}

func columns(x, table [][]float64) (int, error) {
	ncol := -1
	check := func(name string, rows [][]float64) error {
		for i, r := range rows {
			if ncol < 0 {
				ncol = len(r)
			}
			if len(r) != ncol {
				return fmt.Errorf("%w: %s row %d has %d columns, want %d",
					ErrDimensionMismatch, name, i, len(r), ncol)
			}
		}
		return nil
	}
	if err := check("x", x); err != nil {
		return 0, err
	}
	if err := check("table", table); err != nil {
		return 0, err
	}
	if ncol < 0 {
		ncol = 0
	}
	return ncol, nil
}

// recycle repeats v cyclically to length n.
func recycle(v []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v[i%len(v)]
	}
	return out
}
