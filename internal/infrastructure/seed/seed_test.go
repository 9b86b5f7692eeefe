package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

const sample = `
processes:
  - name: Invoice matching
    department: Finance
    impact: 8
    feasibility: 6
    time_spent: 4.5
  - name: Shift planning
    department: "Operations "
    impact: 5
    feasibility: 7
    time_spent: 2
`

func TestDecodeKeepsOrderAndVerbatimDepartments(t *testing.T) {
	got, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []domain.NewProcessInput{
		{Name: "Invoice matching", Department: "Finance", Impact: 8, Feasibility: 6, TimeSpent: 4.5},
		{Name: "Shift planning", Department: "Operations ", Impact: 5, Feasibility: 7, TimeSpent: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded seed mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("processes:\n  - name: x\n    dept: HR\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	got, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no inputs, got %d", len(got))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(got))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
