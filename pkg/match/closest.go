// Package match finds, for query values, the nearest entry of a sorted
// reference array within a combined absolute and ppm tolerance.
package match

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrUnknownDuplicates is returned by ParseDuplicates for an unknown policy name.
	ErrUnknownDuplicates = errors.New("match: unknown duplicates policy")
	// ErrDimensionMismatch is returned by MClosest for ragged input.
	ErrDimensionMismatch = errors.New("match: dimension mismatch")
)

// Index is the result of matching one query. OK is false for no match.
type Index struct {
	Pos int
	OK  bool
}

// None is the no-match result.
var None = Index{}

// Duplicates selects how several queries mapping to the same reference
// element are resolved.
type Duplicates int

const (
	// DuplicatesKeep reports every query's nearest match independently.
	DuplicatesKeep Duplicates = iota
	// DuplicatesClosest keeps only the query closest to a shared reference element.
	DuplicatesClosest
	// DuplicatesRemove drops every match to a reference element claimed more than once.
	DuplicatesRemove
)

func (d Duplicates) String() string {
	switch d {
	case DuplicatesKeep:
		return "keep"
	case DuplicatesClosest:
		return "closest"
	case DuplicatesRemove:
		return "remove"
	}
	return fmt.Sprintf("Duplicates(%d)", int(d))
}

// ParseDuplicates converts a policy name (keep, closest, remove).
func ParseDuplicates(s string) (Duplicates, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep":
		return DuplicatesKeep, nil
	case "closest":
		return DuplicatesClosest, nil
	case "remove":
		return DuplicatesRemove, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDuplicates, s)
}

// Window returns the half-width of the matching window around q.
func Window(q, tolerance, ppm float64) float64 {
	return tolerance + ppm*1e-6*q
}

// Closest returns, for each value of q, the index of the nearest element of
// ref with |q - ref| <= Window(q, tolerance, ppm). ref must be sorted
// ascending. On equal distance the lower reference index wins.
func Closest(q, ref []float64, tolerance, ppm float64, dup Duplicates) []Index {
	out := make([]Index, len(q))
	if len(ref) == 0 {
		return out
	}
	diffs := make([]float64, len(q))

	for i, v := range q {
		j, d, ok := nearest(v, ref)
		if !ok || d > Window(v, tolerance, ppm) {
			continue
		}
		out[i] = Index{Pos: j, OK: true}
		diffs[i] = d
	}

	switch dup {
	case DuplicatesClosest:
		keepClosest(out, diffs)
	case DuplicatesRemove:
		removeShared(out)
	}
	return out
}

// nearest returns the index of the element of ref closest to v.
func nearest(v float64, ref []float64) (int, float64, bool) {
	if math.IsNaN(v) {
		return 0, 0, false
	}
	j := sort.SearchFloat64s(ref, v)
	best, bestDiff := -1, math.Inf(1)
	if j > 0 {
		best, bestDiff = j-1, math.Abs(v-ref[j-1])
	}
	if j < len(ref) {
		if d := math.Abs(ref[j] - v); d < bestDiff {
			best, bestDiff = j, d
		}
	}
	return best, bestDiff, best >= 0
}

func keepClosest(out []Index, diffs []float64) {
	winner := make(map[int]int)
	for i, m := range out {
		if !m.OK {
			continue
		}
		w, seen := winner[m.Pos]
		if !seen {
			winner[m.Pos] = i
			continue
		}
		if diffs[i] < diffs[w] {
			out[w] = None
			winner[m.Pos] = i
		} else {
			out[i] = None
		}
	}
}

func removeShared(out []Index) {
	count := make(map[int]int)
	for _, m := range out {
		if m.OK {
			count[m.Pos]++
		}
	}
	for i, m := range out {
		if m.OK && count[m.Pos] > 1 {
			out[i] = None
		}
	}
}
