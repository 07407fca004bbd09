package isotopologue

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/match"
	"github.com/ChrisMcGann/isogroup/pkg/substitution"
)

// Group is one set of isotopologue peaks. Indices[0] is the seed; the
// remaining indices are ascending. Labels[k] lists the substitutions that
// accepted Indices[k] and is nil for the seed.
type Group struct {
	Indices []int
	Labels  [][]string
}

// Seed returns the index of the seed peak.
func (g Group) Seed() int {
	return g.Indices[0]
}

// Members returns the indices of the matched isotopologue peaks.
func (g Group) Members() []int {
	return g.Indices[1:]
}

// Find partitions the peaks of spec into isotopologue groups.
//
// Peaks are scanned left to right (or in SeedMZ order). Each seed that is
// still unassigned removes itself and every lower peak from the pool,
// generates one candidate m/z per applicable substitution row, matches the
// candidates against the pool with the configured strategy and keeps the
// peaks whose intensity ratio to the seed fits the row's bounds. Matched
// peaks are never reused. Seeds without matches yield no group.
//
// spec and table are read-only and may be shared between concurrent calls.
func Find(spec *core.Spectrum, table substitution.Table, p Params) ([]Group, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spectrum", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.SkipValidation {
		if err := spec.ValidatePeaks(); err != nil {
			return nil, err
		}
	}

	w := newWorkingSet(spec.Peaks)
	seeds := scanOrder(w, p)
	matcher := p.Strategy.matcher()

	var groups []Group
	for _, i := range seeds {
		if !w.contains(i) {
			continue
		}
		w.dropThrough(i)
		if w.len() == 0 {
			// Later seeds were all dropped with this one.
			break
		}

		seed := spec.Peaks[i]
		mass := core.CompoundMass(seed.MZ, p.Charge)
		rows := table.Applicable(mass)
		if len(rows) == 0 {
			continue
		}
		cands := make([]candidate, len(rows))
		for k := range rows {
			cands[k] = candidate{
				mz:  core.IsotopologueMZ(seed.MZ, rows[k].MassDiff, p.Charge),
				row: &rows[k],
			}
		}

		pairs := matcher(cands, w, p.Tolerance, p.PPM)
		g, ok := accept(i, mass, spec.Peaks, w, pairs)
		if !ok {
			continue
		}
		w.remove(g.Members())
		groups = append(groups, g)
	}
	return groups, nil
}

// scanOrder returns the seed indices: the whole pool, or the pool peak
// nearest to each requested seed m/z.
func scanOrder(w *workingSet, p Params) []int {
	if len(p.SeedMZ) == 0 {
		out := make([]int, len(w.idx))
		copy(out, w.idx)
		return out
	}

	res := match.Closest(p.SeedMZ, w.mz, p.Tolerance, p.PPM, match.DuplicatesClosest)
	out := make([]int, 0, len(res))
	for _, r := range res {
		if r.OK {
			out = append(out, w.idx[r.Pos])
		}
	}
	return out
}

// accept applies the intensity test to the matched pairs and assembles the
// group. A peak is kept if at least one of its pairs passes.
func accept(seed int, mass float64, peaks []core.Peak, w *workingSet, pairs []pair) (Group, bool) {
	if len(pairs) == 0 {
		return Group{}, false
	}
	seedIntensity := peaks[seed].Intensity

	labels := make(map[int][]string)
	for _, pr := range pairs {
		idx := w.idx[pr.pos]
		if !pr.row.Accepts(mass, seedIntensity, peaks[idx].Intensity) {
			continue
		}
		if !containsString(labels[idx], pr.row.Name) {
			labels[idx] = append(labels[idx], pr.row.Name)
		}
	}
	if len(labels) == 0 {
		return Group{}, false
	}

	members := make([]int, 0, len(labels))
	for idx := range labels {
		members = append(members, idx)
	}
	sort.Ints(members)

	g := Group{
		Indices: make([]int, 0, len(members)+1),
		Labels:  make([][]string, 0, len(members)+1),
	}
	g.Indices = append(g.Indices, seed)
	g.Labels = append(g.Labels, nil)
	for _, idx := range members {
		g.Indices = append(g.Indices, idx)
		g.Labels = append(g.Labels, labels[idx])
	}
	return g, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Result is the outcome of grouping one spectrum in FindAll.
type Result struct {
	Spectrum *core.Spectrum
	Groups   []Group
	Err      error
}

// FindAll groups several spectra, running up to workers of them
// concurrently. Each spectrum is still scanned sequentially. Results are in
// input order; a failing spectrum sets Err on its own result only. ctx is
// checked before each spectrum starts.
func FindAll(ctx context.Context, spectra []*core.Spectrum, table substitution.Table, p Params, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(spectra))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, spec := range spectra {
		results[i].Spectrum = spec
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, spec *core.Spectrum) {
			defer func() {
				<-sem
				wg.Done()
			}()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			groups, err := Find(spec, table, p)
			if err != nil {
				label := "<nil>"
				if spec != nil {
					label = spec.Label()
				}
				results[i].Err = fmt.Errorf("spectrum %s: %w", label, err)
				return
			}
			results[i].Groups = groups
		}(i, spec)
	}

	wg.Wait()
	return results
}
