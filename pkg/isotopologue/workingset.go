package isotopologue

import "github.com/ChrisMcGann/isogroup/pkg/core"

// workingSet holds the peaks still eligible as match targets, in ascending
// m/z order. Dropping the head is a reslice; removing matched peaks
// compacts the arrays in place.
type workingSet struct {
	idx    []int     // spectrum indices
	mz     []float64 // m/z of idx, parallel
	active []bool    // by spectrum index
}

func newWorkingSet(peaks []core.Peak) *workingSet {
	w := &workingSet{
		idx:    make([]int, 0, len(peaks)),
		mz:     make([]float64, 0, len(peaks)),
		active: make([]bool, len(peaks)),
	}
	for i, p := range peaks {
		// NaN intensities fail this test as well.
		if p.Intensity > 0 {
			w.idx = append(w.idx, i)
			w.mz = append(w.mz, p.MZ)
			w.active[i] = true
		}
	}
	return w
}

func (w *workingSet) len() int {
	return len(w.idx)
}

func (w *workingSet) contains(i int) bool {
	return i >= 0 && i < len(w.active) && w.active[i]
}

// dropThrough removes every element up to and including spectrum index i.
func (w *workingSet) dropThrough(i int) {
	k := 0
	for k < len(w.idx) && w.idx[k] <= i {
		w.active[w.idx[k]] = false
		k++
	}
	w.idx = w.idx[k:]
	w.mz = w.mz[k:]
}

// remove drops the given spectrum indices.
func (w *workingSet) remove(indices []int) {
	for _, i := range indices {
		w.active[i] = false
	}
	k := 0
	for j, i := range w.idx {
		if w.active[i] {
			w.idx[k] = i
			w.mz[k] = w.mz[j]
			k++
		}
	}
	w.idx = w.idx[:k]
	w.mz = w.mz[:k]
}
