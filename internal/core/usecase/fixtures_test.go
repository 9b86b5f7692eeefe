package usecase

import (
	"fmt"
	"time"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// inventoryFixture builds 98 processes: 50 in Operations, the rest spread over
// Finance, HR and Sales. Impact and feasibility cycle through 1..10.
func inventoryFixture() []domain.Process {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	others := []string{"Finance", "HR", "Sales"}

	out := make([]domain.Process, 0, 98)
	for i := 0; i < 98; i++ {
		dept := "Operations"
		if i%2 == 1 && i != 97 {
			dept = others[i%3]
		}
		impact := i%10 + 1
		feasibility := (i*3)%10 + 1
		out = append(out, domain.Process{
			ID:              fmt.Sprintf("p-%03d", i),
			Name:            fmt.Sprintf("Process %03d invoice", i),
			Department:      dept,
			Impact:          impact,
			Feasibility:     feasibility,
			AutomationScore: domain.AutomationScore(impact, feasibility),
			TimeSpent:       float64(i%7 + 1),
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func countDepartment(processes []domain.Process, dept string) int {
	n := 0
	for _, p := range processes {
		if p.Department == dept {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T { return &v }
