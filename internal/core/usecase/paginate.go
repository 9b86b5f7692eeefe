package usecase

import (
	"slices"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// Paginate slices the filtered sequence into the requested page. The page is
// clamped into [1, totalPages] so a narrowed result set never yields an empty
// page while data exists.
func Paginate(processes []domain.Process, page int, size domain.PageSize) domain.Page {
	if !size.Valid() {
		size = domain.PageSizeOf(domain.DefaultItemsPerPage)
	}
	total := len(processes)

	if size.All {
		out := domain.Page{
			Items:        slices.Clip(processes),
			CurrentPage:  1,
			ItemsPerPage: size,
			Total:        total,
			PageButtons:  []int{},
		}
		if total > 0 {
			out.TotalPages = 1
			out.Start = 1
			out.End = total
		}
		return out
	}

	totalPages := (total + size.N - 1) / size.N
	current := ClampPage(page, totalPages)

	start := (current - 1) * size.N
	end := min(start+size.N, total)

	buttons := make([]int, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		buttons = append(buttons, i)
	}

	out := domain.Page{
		Items:        slices.Clip(processes[start:end]),
		CurrentPage:  current,
		TotalPages:   totalPages,
		ItemsPerPage: size,
		End:          end,
		Total:        total,
		PageButtons:  buttons,
		HasPrev:      current > 1,
		HasNext:      current < totalPages,
		ShowControls: total > 0,
	}
	if total > 0 {
		out.Start = start + 1
	}
	return out
}

func ClampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
