package substitution

import (
	"errors"
	"testing"
)

func TestLookupDefault(t *testing.T) {
	tbl, err := Lookup(DefaultTable)
	if err != nil {
		t.Fatalf("Lookup(%s) error = %v", DefaultTable, err)
	}
	if tbl.Len() == 0 {
		t.Fatal("built-in table is empty")
	}
	if err := tbl.Validate(); err != nil {
		t.Errorf("built-in table invalid: %v", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("NOPE")
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	if err := Register("", Table{}); err == nil {
		t.Error("expected an error for an empty name")
	}
	bad := Table{{Name: "b", MassDiff: 2, RightEnd: 1}, {Name: "a", MassDiff: 1, RightEnd: 1}}
	if err := Register("bad", bad); !errors.Is(err, ErrUnsortedTable) {
		t.Errorf("expected ErrUnsortedTable, got %v", err)
	}

	if err := Register("test-custom", Table{carbonRow()}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	tbl, err := Lookup("test-custom")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if tbl[0].Name != "[13C]1" {
		t.Errorf("unexpected table %+v", tbl)
	}

	found := false
	for _, name := range Registered() {
		if name == "test-custom" {
			found = true
		}
	}
	if !found {
		t.Error("Registered() does not list test-custom")
	}
}

// The bands of every substitution in the built-in table must tile the
// mass axis, so that exactly one row of each substitution applies.
func TestDefaultTableBandsTile(t *testing.T) {
	tbl, err := Lookup(DefaultTable)
	if err != nil {
		t.Fatal(err)
	}

	for _, mass := range []float64{1, 100, 250, 250.5, 500, 999, 1000, 1500, 5000} {
		counts := make(map[string]int)
		for _, r := range tbl.Applicable(mass) {
			counts[r.Name]++
		}
		for _, name := range tbl.Names() {
			if counts[name] != 1 {
				t.Errorf("mass %v: %s applies %d times", mass, name, counts[name])
			}
		}
	}
}

// Bound lines of adjacent bands meet at the band edges.
func TestDefaultTableBoundsContinuous(t *testing.T) {
	tbl, err := Lookup(DefaultTable)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(tbl); i++ {
		prev, cur := tbl[i-1], tbl[i]
		if prev.Name != cur.Name {
			continue
		}
		pl, pu := prev.Bounds(prev.RightEnd)
		cl, cu := cur.Bounds(cur.LeftEnd)
		if diff := pl - cl; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s lower bound jumps at %v: %v vs %v", cur.Name, cur.LeftEnd, pl, cl)
		}
		if diff := pu - cu; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s upper bound jumps at %v: %v vs %v", cur.Name, cur.LeftEnd, pu, cu)
		}
		lower, upper := cur.Bounds(cur.LeftEnd + 1)
		if lower > upper {
			t.Errorf("%s lower bound above upper bound", cur.Name)
		}
	}
}
