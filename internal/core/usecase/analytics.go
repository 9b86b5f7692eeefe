package usecase

import (
	"slices"
	"strings"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// DepartmentSummary aggregates per exact department value, sorted by name.
func DepartmentSummary(processes []domain.Process) []domain.DepartmentStats {
	type acc struct {
		count                      int
		impact, feasibility, score int
		timeSpent                  float64
	}
	byDept := make(map[string]*acc)
	for _, p := range processes {
		a, ok := byDept[p.Department]
		if !ok {
			a = &acc{}
			byDept[p.Department] = a
		}
		a.count++
		a.impact += p.Impact
		a.feasibility += p.Feasibility
		a.score += p.AutomationScore
		a.timeSpent += p.TimeSpent
	}

	out := make([]domain.DepartmentStats, 0, len(byDept))
	for dept, a := range byDept {
		n := float64(a.count)
		out = append(out, domain.DepartmentStats{
			Department:         dept,
			Processes:          a.count,
			AvgImpact:          float64(a.impact) / n,
			AvgFeasibility:     float64(a.feasibility) / n,
			AvgAutomationScore: float64(a.score) / n,
			TotalTimeSpent:     a.timeSpent,
		})
	}
	slices.SortFunc(out, func(a, b domain.DepartmentStats) int {
		return strings.Compare(a.Department, b.Department)
	})
	return out
}
