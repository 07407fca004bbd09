package isotopologue

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/isogroup/pkg/match"
	"github.com/ChrisMcGann/isogroup/pkg/substitution"
)

// candidate is the m/z at which the isotopologue of one substitution row
// is expected for the current seed. Candidates are ascending in mz because
// the table is sorted by mass difference.
type candidate struct {
	mz  float64
	row *substitution.Row
}

// pair links a working-set position to the substitution it matched.
type pair struct {
	pos int
	row *substitution.Row
}

// matchFunc is the strategy-specific mass matching step.
type matchFunc func(cands []candidate, w *workingSet, tolerance, ppm float64) []pair

func (s Strategy) matcher() matchFunc {
	switch s {
	case SingleClosest:
		return matchSingle
	case ReverseClosest:
		return matchReverse
	case Grouped:
		return matchGrouped
	}
	return matchExhaustive
}

func candidateMZs(cands []candidate) []float64 {
	out := make([]float64, len(cands))
	for i, c := range cands {
		out[i] = c.mz
	}
	return out
}

// matchSingle finds the nearest peak for each candidate mass.
func matchSingle(cands []candidate, w *workingSet, tolerance, ppm float64) []pair {
	res := match.Closest(candidateMZs(cands), w.mz, tolerance, ppm, match.DuplicatesKeep)
	var pairs []pair
	for j, r := range res {
		if r.OK {
			pairs = append(pairs, pair{pos: r.Pos, row: cands[j].row})
		}
	}
	return pairs
}

// matchReverse finds the nearest candidate mass for each peak.
func matchReverse(cands []candidate, w *workingSet, tolerance, ppm float64) []pair {
	res := match.Closest(w.mz, candidateMZs(cands), tolerance, ppm, match.DuplicatesKeep)
	var pairs []pair
	for pos, r := range res {
		if r.OK {
			pairs = append(pairs, pair{pos: pos, row: cands[r.Pos].row})
		}
	}
	return pairs
}

// matchExhaustive collects every peak inside each candidate's window.
func matchExhaustive(cands []candidate, w *workingSet, tolerance, ppm float64) []pair {
	var pairs []pair
	for _, c := range cands {
		tol := match.Window(c.mz, tolerance, ppm)
		lo := sort.SearchFloat64s(w.mz, c.mz-tol)
		for lo > 0 && math.Abs(w.mz[lo-1]-c.mz) <= tol {
			lo--
		}
		for k := lo; k < len(w.mz) && w.mz[k]-c.mz <= tol; k++ {
			if math.Abs(w.mz[k]-c.mz) <= tol {
				pairs = append(pairs, pair{pos: k, row: c.row})
			}
		}
	}
	return pairs
}

// cluster is a run of candidates chained within tolerance of each other.
type cluster struct {
	mean    float64
	members []candidate
}

// clusterCandidates merges neighbouring candidates whose distance is within
// the tolerance window of the lower one.
func clusterCandidates(cands []candidate, tolerance, ppm float64) []cluster {
	var clusters []cluster
	start := 0
	for i := 1; i <= len(cands); i++ {
		if i < len(cands) && cands[i].mz-cands[i-1].mz <= match.Window(cands[i-1].mz, tolerance, ppm) {
			continue
		}
		members := cands[start:i]
		clusters = append(clusters, cluster{
			mean:    stat.Mean(candidateMZs(members), nil),
			members: members,
		})
		start = i
	}
	return clusters
}

// matchGrouped matches each peak to the nearest cluster mean and expands
// the hit to every substitution of that cluster.
func matchGrouped(cands []candidate, w *workingSet, tolerance, ppm float64) []pair {
	if len(cands) == 0 {
		return nil
	}
	clusters := clusterCandidates(cands, tolerance, ppm)
	means := make([]float64, len(clusters))
	for i, c := range clusters {
		means[i] = c.mean
	}

	res := match.Closest(w.mz, means, tolerance, ppm, match.DuplicatesKeep)
	var pairs []pair
	for pos, r := range res {
		if !r.OK {
			continue
		}
		for _, c := range clusters[r.Pos].members {
			pairs = append(pairs, pair{pos: pos, row: c.row})
		}
	}
	return pairs
}
