package match

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func hit(i int) Index { return Index{Pos: i, OK: true} }

func TestWindow(t *testing.T) {
	if got := Window(100, 0.01, 10); math.Abs(got-0.011) > 1e-12 {
		t.Errorf("Window() = %v, want 0.011", got)
	}
	if got := Window(500, 0, 0); got != 0 {
		t.Errorf("Window() = %v, want 0", got)
	}
}

func TestClosest(t *testing.T) {
	ref := []float64{100.0, 101.0, 102.0, 105.0}

	tests := []struct {
		name      string
		q         []float64
		tolerance float64
		ppm       float64
		dup       Duplicates
		want      []Index
	}{
		{
			name:      "exact and near matches",
			q:         []float64{100.0, 101.05, 104.5},
			tolerance: 0.1,
			dup:       DuplicatesKeep,
			want:      []Index{hit(0), hit(1), None},
		},
		{
			name:      "outside ppm window",
			q:         []float64{100.003},
			ppm:       20,
			dup:       DuplicatesKeep,
			want:      []Index{None},
		},
		{
			name: "inside ppm window",
			q:    []float64{100.0015},
			ppm:  20,
			dup:  DuplicatesKeep,
			want: []Index{hit(0)},
		},
		{
			name:      "below and above the reference range",
			q:         []float64{50, 200},
			tolerance: 1,
			dup:       DuplicatesKeep,
			want:      []Index{None, None},
		},
		{
			name:      "equidistant picks the lower index",
			q:         []float64{100.5},
			tolerance: 1,
			dup:       DuplicatesKeep,
			want:      []Index{hit(0)},
		},
		{
			name:      "keep allows shared matches",
			q:         []float64{101.02, 100.99, 101.0},
			tolerance: 0.05,
			dup:       DuplicatesKeep,
			want:      []Index{hit(1), hit(1), hit(1)},
		},
		{
			name:      "closest keeps the smallest difference",
			q:         []float64{101.02, 100.99, 101.0},
			tolerance: 0.05,
			dup:       DuplicatesClosest,
			want:      []Index{None, None, hit(1)},
		},
		{
			name:      "closest first query wins exact ties",
			q:         []float64{101.25, 100.75},
			tolerance: 0.3,
			dup:       DuplicatesClosest,
			want:      []Index{hit(1), None},
		},
		{
			name:      "remove drops every shared match",
			q:         []float64{101.02, 100.99, 105.0},
			tolerance: 0.05,
			dup:       DuplicatesRemove,
			want:      []Index{None, None, hit(3)},
		},
		{
			name:      "NaN query never matches",
			q:         []float64{math.NaN()},
			tolerance: 10,
			dup:       DuplicatesKeep,
			want:      []Index{None},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Closest(tt.q, ref, tt.tolerance, tt.ppm, tt.dup)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Closest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClosestEmptyReference(t *testing.T) {
	got := Closest([]float64{1, 2}, nil, 10, 10, DuplicatesKeep)
	if diff := cmp.Diff([]Index{None, None}, got); diff != "" {
		t.Errorf("Closest() mismatch (-want +got):\n%s", diff)
	}
}

func TestClosestWindowUsesQuery(t *testing.T) {
	// 1000 ppm of the query 1000.0 is 1.0; the reference sits 0.9995 away.
	got := Closest([]float64{1000.0}, []float64{999.0005}, 0, 1000, DuplicatesKeep)
	if !got[0].OK {
		t.Errorf("expected a match, got %+v", got[0])
	}
}

func TestParseDuplicates(t *testing.T) {
	tests := []struct {
		in      string
		want    Duplicates
		wantErr bool
	}{
		{"keep", DuplicatesKeep, false},
		{"Closest", DuplicatesClosest, false},
		{" remove ", DuplicatesRemove, false},
		{"first", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuplicates(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuplicates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnknownDuplicates) {
					t.Errorf("expected ErrUnknownDuplicates, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseDuplicates() = %v, want %v", got, tt.want)
			}
			if got.String() != tt.want.String() {
				t.Errorf("String() = %s", got.String())
			}
		})
	}
}
