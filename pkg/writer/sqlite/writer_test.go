package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/isotopologue"
)

func decodeFloat64(blob []byte) []float64 {
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out
}

func testResult() (*core.Spectrum, []isotopologue.Group) {
	rt := 12.5
	spec := &core.Spectrum{
		Name:          "sample",
		RetentionTime: &rt,
		Peaks: []core.Peak{
			{MZ: 100.0, Intensity: 100},
			{MZ: 101.003355, Intensity: 1.1},
			{MZ: 102.0, Intensity: 5},
			{MZ: 103.0, Intensity: 50},
			{MZ: 104.0, Intensity: 2},
		},
	}
	groups := []isotopologue.Group{
		{Indices: []int{0, 1}, Labels: [][]string{nil, {"[13C]1"}}},
		{Indices: []int{3, 4}, Labels: [][]string{nil, {"[13C]1", "[17O]1"}}},
	}
	return spec, groups
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")

	w, err := NewWriter(path, RunInfo{Strategy: "exhaustive", Table: "HMDB", PPM: 20, Charge: 1})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	runID := w.RunID()
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("RunID() = %q is not a UUID: %v", runID, err)
	}

	spec, groups := testResult()
	if err := w.WriteResult(spec, groups); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}
	empty := &core.Spectrum{SourceFile: "blank.txt"}
	if err := w.WriteResult(empty, nil); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var strategy string
	var nSpectra, nGroups int
	err = db.QueryRow(`SELECT Strategy, NoofSpectra, NoofGroups FROM RunTable WHERE RunId = ?`, runID).
		Scan(&strategy, &nSpectra, &nGroups)
	if err != nil {
		t.Fatalf("query run: %v", err)
	}
	if strategy != "exhaustive" || nSpectra != 2 || nGroups != 2 {
		t.Errorf("run = %s/%d/%d, want exhaustive/2/2", strategy, nSpectra, nGroups)
	}

	var name string
	var rt float64
	var mzBlob, intBlob []byte
	err = db.QueryRow(`SELECT Name, RetentionTime, blobMass, blobIntensity FROM SpectrumTable ORDER BY SpectrumId LIMIT 1`).
		Scan(&name, &rt, &mzBlob, &intBlob)
	if err != nil {
		t.Fatalf("query spectrum: %v", err)
	}
	if name != "sample" || rt != 12.5 {
		t.Errorf("spectrum = %s/%v", name, rt)
	}
	if diff := cmp.Diff(spec.MZs(), decodeFloat64(mzBlob)); diff != "" {
		t.Errorf("blobMass mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(spec.Intensities(), decodeFloat64(intBlob)); diff != "" {
		t.Errorf("blobIntensity mismatch (-want +got):\n%s", diff)
	}

	rows, err := db.Query(`
		SELECT g.SeedIndex, m.PeakIndex, m.Substitutions
		FROM MemberTable m JOIN GroupTable g ON m.GroupId = g.GroupId
		ORDER BY g.SeedIndex, m.PeakIndex`)
	if err != nil {
		t.Fatalf("query members: %v", err)
	}
	defer rows.Close()

	type member struct {
		Seed, Peak int
		Labels     string
	}
	var got []member
	for rows.Next() {
		var m member
		if err := rows.Scan(&m.Seed, &m.Peak, &m.Labels); err != nil {
			t.Fatal(err)
		}
		got = append(got, m)
	}
	want := []member{{0, 1, "[13C]1"}, {3, 4, "[13C]1;[17O]1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterRunsShareDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	spec, groups := testResult()

	ids := make(map[string]bool)
	for i := 0; i < 2; i++ {
		w, err := NewWriter(path, RunInfo{Strategy: "single"})
		if err != nil {
			t.Fatalf("NewWriter() error = %v", err)
		}
		ids[w.RunID()] = true
		if err := w.WriteResult(spec, groups); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 2 {
		t.Errorf("expected distinct run ids, got %v", ids)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM GroupTable`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("GroupTable has %d rows, want 4", n)
	}
}

func TestWriterBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "groups.db")
	if _, err := NewWriter(path, RunInfo{}); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestWriterFinalizeClosesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	w, err := NewWriter(path, RunInfo{Strategy: "single"})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	other, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if _, err := other.Exec(`DROP TABLE RunTable`); err != nil {
		t.Fatal(err)
	}

	if err := w.Finalize(); err == nil {
		t.Fatal("expected error when the run row cannot be updated")
	}
	if err := w.db.Ping(); err == nil {
		t.Error("database still open after failed Finalize")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() after Finalize error = %v", err)
	}
}
