package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

func TestFilterProcessesByDepartmentOperations(t *testing.T) {
	processes := inventoryFixture()
	if len(processes) != 98 || countDepartment(processes, "Operations") != 50 {
		t.Fatalf("fixture drifted: total=%d operations=%d", len(processes), countDepartment(processes, "Operations"))
	}

	result := FilterProcesses(processes, domain.FilterState{Department: "Operations"})
	if len(result.Processes) != 50 {
		t.Fatalf("expected 50 operations processes, got %d", len(result.Processes))
	}
	if result.Reason != domain.EmptyReasonNone {
		t.Fatalf("expected no empty reason, got %q", result.Reason)
	}
}

func TestFilterProcessesKeepsStoreOrder(t *testing.T) {
	processes := inventoryFixture()
	result := FilterProcesses(processes, domain.FilterState{Department: "Operations", MinImpact: 5})

	var want []string
	for _, p := range processes {
		if p.Department == "Operations" && p.Impact >= 5 {
			want = append(want, p.ID)
		}
	}
	got := make([]string, 0, len(result.Processes))
	for _, p := range result.Processes {
		got = append(got, p.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filtered order mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterProcessesSearchIsCaseInsensitiveSubstring(t *testing.T) {
	result := FilterProcesses(inventoryFixture(), domain.FilterState{SearchTerm: "PROCESS 01"})
	if len(result.Processes) != 10 {
		t.Fatalf("expected 10 matches for PROCESS 01, got %d", len(result.Processes))
	}
}

func TestFilterProcessesUnknownSearchYieldsNoMatch(t *testing.T) {
	result := FilterProcesses(inventoryFixture(), domain.FilterState{SearchTerm: "zz-does-not-exist"})
	if len(result.Processes) != 0 {
		t.Fatalf("expected 0 matches, got %d", len(result.Processes))
	}
	if result.Reason != domain.EmptyReasonNoMatch {
		t.Fatalf("expected no_match, got %q", result.Reason)
	}
}

func TestFilterProcessesMinImpactAboveScale(t *testing.T) {
	result := FilterProcesses(inventoryFixture(), domain.FilterState{MinImpact: 11})
	if len(result.Processes) != 0 {
		t.Fatalf("expected 0 results for minImpact 11, got %d", len(result.Processes))
	}
}

func TestFilterProcessesThresholdsAreInclusive(t *testing.T) {
	processes := []domain.Process{
		{ID: "a", Name: "a", Department: "Ops", Impact: 7, Feasibility: 4, AutomationScore: 28},
		{ID: "b", Name: "b", Department: "Ops", Impact: 6, Feasibility: 9, AutomationScore: 54},
	}
	result := FilterProcesses(processes, domain.FilterState{MinImpact: 7, MinFeasibility: 4, MinAutomation: 28})
	if len(result.Processes) != 1 || result.Processes[0].ID != "a" {
		t.Fatalf("expected only process a, got %+v", result.Processes)
	}
}

func TestFilterProcessesReportsDepartmentMismatch(t *testing.T) {
	processes := inventoryFixture()
	for _, dept := range []string{"operations", " Operations", "OPERATIONS "} {
		result := FilterProcesses(processes, domain.FilterState{Department: dept})
		if len(result.Processes) != 0 {
			t.Fatalf("department %q: expected exact matching to return 0, got %d", dept, len(result.Processes))
		}
		if result.Reason != domain.EmptyReasonDepartmentMismatch {
			t.Fatalf("department %q: expected department_mismatch, got %q", dept, result.Reason)
		}
	}
}

func TestFilterProcessesReportsUnknownDepartment(t *testing.T) {
	result := FilterProcesses(inventoryFixture(), domain.FilterState{Department: "Legal"})
	if result.Reason != domain.EmptyReasonUnknownDepartment {
		t.Fatalf("expected unknown_department, got %q", result.Reason)
	}
}

func TestFilterProcessesEmptyStoreIsNoData(t *testing.T) {
	result := FilterProcesses(nil, domain.FilterState{Department: "Operations"})
	if result.Reason != domain.EmptyReasonNoData {
		t.Fatalf("expected no_data, got %q", result.Reason)
	}
	if result.Processes == nil {
		t.Fatalf("expected empty, non-nil slice")
	}
}

func TestFilterProcessesNoMatchWithinExistingDepartment(t *testing.T) {
	result := FilterProcesses(inventoryFixture(), domain.FilterState{Department: "Operations", SearchTerm: "nothing"})
	if result.Reason != domain.EmptyReasonNoMatch {
		t.Fatalf("expected no_match when department exists, got %q", result.Reason)
	}
}
