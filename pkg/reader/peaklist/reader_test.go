package peaklist

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ChrisMcGann/isogroup/pkg/core"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []core.Peak
	}{
		{
			name:  "whitespace",
			input: "100.0 100\n101.003355   1.1\n",
			want:  []core.Peak{{MZ: 100, Intensity: 100}, {MZ: 101.003355, Intensity: 1.1}},
		},
		{
			name:  "csv with header",
			input: "mz,intensity\n100.0,100\n102.0,5\n",
			want:  []core.Peak{{MZ: 100, Intensity: 100}, {MZ: 102, Intensity: 5}},
		},
		{
			name:  "tabs and comments",
			input: "# exported\n\n100.0\t100\n# trailer\n",
			want:  []core.Peak{{MZ: 100, Intensity: 100}},
		},
		{
			name:  "empty",
			input: "# nothing\n",
			want:  []core.Peak{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Read(strings.NewReader(tt.input), "sample")
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, spec.Peaks); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
			if spec.Name != "sample" || spec.SourceFormat != "peaklist" {
				t.Errorf("unexpected metadata %q/%q", spec.Name, spec.SourceFormat)
			}
		})
	}
}

func TestReadMissingMZ(t *testing.T) {
	spec, err := Read(strings.NewReader("100 1\nNA 2\n"), "")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !math.IsNaN(spec.Peaks[1].MZ) {
		t.Errorf("expected NaN m/z, got %v", spec.Peaks[1].MZ)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single column", "100\n"},
		{"bad value after data", "100 1\nabc 2\n"},
		{"bad intensity after header", "mz intensity\n100 x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input), ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank_01.txt")
	if err := os.WriteFile(path, []byte("100 1\n101 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	spec, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if spec.Name != "blank_01" || spec.SourceFile != path || spec.Len() != 2 {
		t.Errorf("unexpected spectrum %+v", spec)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
