package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/automation-dashboard/internal/config"
)

func run(t *testing.T, storePath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd, closeCLI := newRootCmd(config.Config{ProcessStore: config.StoreBackendLocal}, &out)
	defer closeCLI()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--local-path", storePath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddListDeleteRoundTrip(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "processes.json")

	for _, args := range [][]string{
		{"add", "--name", "Invoice matching", "--department", "Finance", "--impact", "8", "--feasibility", "6", "--time-spent", "5"},
		{"add", "--name", "Shift planning", "--department", "Operations", "--impact", "5", "--feasibility", "9", "--time-spent", "3"},
	} {
		if out, err := run(t, storePath, args...); err != nil {
			t.Fatalf("add failed: %v\n%s", err, out)
		}
	}

	out, err := run(t, storePath, "list", "--department", "Finance")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Invoice matching") || strings.Contains(out, "Shift planning") {
		t.Fatalf("department filter not applied:\n%s", out)
	}
	if !strings.Contains(out, "Showing 1–1 of 1") {
		t.Fatalf("missing showing label:\n%s", out)
	}

	out, err = run(t, storePath, "list", "--department", "finance")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "[department_mismatch]") {
		t.Fatalf("expected department_mismatch reason:\n%s", out)
	}

	if _, err := run(t, storePath, "delete", "missing-id"); err == nil {
		t.Fatalf("expected error deleting unknown id")
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "processes.json")
	if _, err := run(t, storePath, "add", "--name", "A", "--department", "HR", "--impact", "1", "--feasibility", "1", "--time-spent", "1"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := run(t, storePath, "clear"); err == nil {
		t.Fatalf("clear without --yes must fail")
	}
	if _, err := run(t, storePath, "clear", "--yes"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	out, err := run(t, storePath, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Showing 0–0 of 0 [no_data]") {
		t.Fatalf("expected empty inventory:\n%s", out)
	}
}

func TestSeedAndExport(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "processes.json")
	seedPath := filepath.Join(dir, "seed.yaml")
	doc := "processes:\n  - {name: Payroll, department: HR, impact: 7, feasibility: 8, time_spent: 4}\n  - {name: Dispatch, department: Operations, impact: 6, feasibility: 6, time_spent: 2}\n"
	if err := os.WriteFile(seedPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	out, err := run(t, storePath, "seed", seedPath)
	if err != nil || !strings.Contains(out, "Seeded 2 processes") {
		t.Fatalf("seed failed: %v\n%s", err, out)
	}
	out, err = run(t, storePath, "seed", seedPath)
	if err != nil || !strings.Contains(out, "nothing seeded") {
		t.Fatalf("second seed must be a no-op: %v\n%s", err, out)
	}

	xlsxPath := filepath.Join(dir, "ops.xlsx")
	out, err = run(t, storePath, "export", "--department", "Operations", "--out", xlsxPath)
	if err != nil || !strings.Contains(out, "Exported 1 processes") {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Fatalf("export file missing: %v", err)
	}

	out, err = run(t, storePath, "departments")
	if err != nil || !strings.Contains(out, `"HR"`) {
		t.Fatalf("departments failed: %v\n%s", err, out)
	}
}
