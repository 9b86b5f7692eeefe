package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

// ProcessRepository persists process records in insertion order.
type ProcessRepository interface {
	List(ctx context.Context) ([]domain.Process, error)
	Create(ctx context.Context, process *domain.Process) error
	// CreateMany writes the whole batch or nothing.
	CreateMany(ctx context.Context, processes []*domain.Process) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// ChangeNotifier publishes/consumes process change events between instances.
type ChangeNotifier interface {
	PublishProcessesChanged(ctx context.Context, event domain.ProcessesChanged) error
	SubscribeProcessesChanged(ctx context.Context, handler func(context.Context, domain.ProcessesChanged) error) error
}

// ViewRenderer turns a computed view into markup.
type ViewRenderer interface {
	Render(w io.Writer, view *domain.View) error
}

// ProcessExporter writes a set of processes as a downloadable document.
type ProcessExporter interface {
	Export(w io.Writer, processes []domain.Process) error
}

// ViewObserver is told about every recompute and store load.
type ViewObserver interface {
	ObserveRecompute(reason domain.EmptyReason, filtered, total int)
	ObserveStoreLoad(duration time.Duration, size int, err error)
}
