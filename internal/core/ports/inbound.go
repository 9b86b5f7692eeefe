package ports

import (
	"context"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// ProcessCatalog is the inbound contract for process inventory mutations and reads.
type ProcessCatalog interface {
	List(ctx context.Context) ([]domain.Process, error)
	Create(ctx context.Context, input domain.NewProcessInput) (*domain.Process, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Departments(ctx context.Context) ([]domain.DepartmentStats, error)
	Ready() bool
}

// ProcessView is the per-session filter/pagination controller.
type ProcessView interface {
	View(ctx context.Context, session string) (*domain.View, error)
	Filtered(ctx context.Context, session string) ([]domain.Process, error)
	OnFilterChanged(ctx context.Context, session string, update domain.FilterUpdate) (*domain.View, error)
	ClearFilters(ctx context.Context, session string) (*domain.View, error)
	SetPage(ctx context.Context, session string, page int) (*domain.View, error)
	SetItemsPerPage(ctx context.Context, session string, size domain.PageSize) (*domain.View, error)
}
