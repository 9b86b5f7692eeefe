package usecase

import (
	"strings"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

type FilterResult struct {
	Processes []domain.Process
	Reason    domain.EmptyReason
}

// FilterProcesses keeps every process matching all criteria, in store order.
func FilterProcesses(processes []domain.Process, filters domain.FilterState) FilterResult {
	term := strings.ToLower(filters.SearchTerm)

	out := make([]domain.Process, 0, len(processes))
	for _, p := range processes {
		if matchesFilters(p, filters, term) {
			out = append(out, p)
		}
	}

	result := FilterResult{Processes: out}
	if len(out) == 0 {
		result.Reason = explainEmpty(processes, filters)
	}
	return result
}

func matchesFilters(p domain.Process, filters domain.FilterState, lowerTerm string) bool {
	if lowerTerm != "" && !strings.Contains(strings.ToLower(p.Name), lowerTerm) {
		return false
	}
	// Department is compared by string identity; see explainEmpty for near misses.
	if filters.Department != "" && p.Department != filters.Department {
		return false
	}
	if float64(p.Impact) < filters.MinImpact {
		return false
	}
	if float64(p.Feasibility) < filters.MinFeasibility {
		return false
	}
	if float64(p.AutomationScore) < filters.MinAutomation {
		return false
	}
	return true
}

func explainEmpty(processes []domain.Process, filters domain.FilterState) domain.EmptyReason {
	if len(processes) == 0 {
		return domain.EmptyReasonNoData
	}
	if filters.Department == "" {
		return domain.EmptyReasonNoMatch
	}

	wanted := normalizeDepartment(filters.Department)
	loose := false
	for _, p := range processes {
		if p.Department == filters.Department {
			return domain.EmptyReasonNoMatch
		}
		if normalizeDepartment(p.Department) == wanted {
			loose = true
		}
	}
	if loose {
		return domain.EmptyReasonDepartmentMismatch
	}
	return domain.EmptyReasonUnknownDepartment
}

func normalizeDepartment(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}
