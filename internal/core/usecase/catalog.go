package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/core/ports"
)

const maxProcessNameLength = 200

// ProcessCatalogUseCase writes through to the repository and then reloads the
// in-memory store, so the store always mirrors the backend's order.
// Reloads are serialized: a List that started earlier can never replace the
// result of one that started later.
type ProcessCatalogUseCase struct {
	loadMu sync.Mutex

	repo     ports.ProcessRepository
	store    *ProcessStore
	notifier ports.ChangeNotifier
	observer ports.ViewObserver
	origin   string
	now      func() time.Time
}

func NewProcessCatalogUseCase(
	repo ports.ProcessRepository,
	store *ProcessStore,
	notifier ports.ChangeNotifier,
	observer ports.ViewObserver,
	origin string,
) *ProcessCatalogUseCase {
	if origin == "" {
		origin = uuid.NewString()
	}
	return &ProcessCatalogUseCase{
		repo:     repo,
		store:    store,
		notifier: notifier,
		observer: observer,
		origin:   origin,
		now:      time.Now,
	}
}

func (uc *ProcessCatalogUseCase) Origin() string {
	return uc.origin
}

func (uc *ProcessCatalogUseCase) Ready() bool {
	return uc.store.Ready()
}

// Load replaces the store with the backend contents.
func (uc *ProcessCatalogUseCase) Load(ctx context.Context) error {
	uc.loadMu.Lock()
	defer uc.loadMu.Unlock()

	start := uc.now()
	processes, err := uc.repo.List(ctx)
	if uc.observer != nil {
		uc.observer.ObserveStoreLoad(uc.now().Sub(start), len(processes), err)
	}
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}
	version := uc.store.Replace(processes)
	slog.Debug("process_store_loaded", "processes", len(processes), "version", version)
	return nil
}

// HandleChange reloads the store for events published by other instances.
func (uc *ProcessCatalogUseCase) HandleChange(ctx context.Context, event domain.ProcessesChanged) error {
	if event.Origin == uc.origin {
		return nil
	}
	if err := uc.Load(ctx); err != nil {
		return fmt.Errorf("reload after %s event: %w", event.Kind, err)
	}
	return nil
}

func (uc *ProcessCatalogUseCase) List(ctx context.Context) ([]domain.Process, error) {
	if err := uc.store.WaitReady(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(uc.store.Snapshot().Processes), nil
}

func (uc *ProcessCatalogUseCase) Departments(ctx context.Context) ([]domain.DepartmentStats, error) {
	if err := uc.store.WaitReady(ctx); err != nil {
		return nil, err
	}
	return DepartmentSummary(uc.store.Snapshot().Processes), nil
}

func (uc *ProcessCatalogUseCase) Create(ctx context.Context, input domain.NewProcessInput) (*domain.Process, error) {
	process, err := uc.newProcess(input)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, process); err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}
	uc.afterMutation(ctx, domain.ChangeCreated, process.ID)
	return process, nil
}

func (uc *ProcessCatalogUseCase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete process", errors.New("process id is required"))
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	uc.afterMutation(ctx, domain.ChangeDeleted, id)
	return nil
}

func (uc *ProcessCatalogUseCase) Clear(ctx context.Context) error {
	if err := uc.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear processes: %w", err)
	}
	uc.afterMutation(ctx, domain.ChangeCleared, "")
	return nil
}

// Seed inserts inputs only when the backend is empty. Every input is validated
// first and the batch is written in one repository call, so a failed seed
// leaves the backend empty and is retried on the next start.
func (uc *ProcessCatalogUseCase) Seed(ctx context.Context, inputs []domain.NewProcessInput) (int, error) {
	existing, err := uc.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes before seed: %w", err)
	}
	if len(existing) > 0 || len(inputs) == 0 {
		return 0, nil
	}

	processes := make([]*domain.Process, 0, len(inputs))
	for i, input := range inputs {
		process, err := uc.newProcess(input)
		if err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		processes = append(processes, process)
	}

	if err := uc.repo.CreateMany(ctx, processes); err != nil {
		return 0, fmt.Errorf("seed %d processes: %w", len(processes), err)
	}
	uc.afterMutation(ctx, domain.ChangeSeeded, "")
	return len(processes), nil
}

func (uc *ProcessCatalogUseCase) newProcess(input domain.NewProcessInput) (*domain.Process, error) {
	if err := ValidateProcessInput(input); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate process", err)
	}
	// Created timestamps are kept at microsecond precision so that both
	// backends report identical values.
	return &domain.Process{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Department:      input.Department,
		Impact:          input.Impact,
		Feasibility:     input.Feasibility,
		AutomationScore: domain.AutomationScore(input.Impact, input.Feasibility),
		TimeSpent:       input.TimeSpent,
		CreatedAt:       uc.now().UTC().Truncate(time.Microsecond),
	}, nil
}

func (uc *ProcessCatalogUseCase) afterMutation(ctx context.Context, kind domain.ChangeKind, processID string) {
	if err := uc.Load(ctx); err != nil {
		slog.Warn("process_store_reload_failed", "change", string(kind), "error", err)
	}
	if uc.notifier == nil {
		return
	}
	event := domain.ProcessesChanged{
		Origin:    uc.origin,
		Kind:      kind,
		ProcessID: processID,
		At:        uc.now().UTC(),
	}
	if err := uc.notifier.PublishProcessesChanged(ctx, event); err != nil {
		slog.Warn("process_change_publish_failed", "change", string(kind), "process_id", processID, "error", err)
	}
}

func ValidateProcessInput(input domain.NewProcessInput) error {
	var errs []error
	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len([]rune(name)) > maxProcessNameLength {
		errs = append(errs, fmt.Errorf("name longer than %d characters", maxProcessNameLength))
	}
	if strings.TrimSpace(input.Department) == "" {
		errs = append(errs, errors.New("department is required"))
	}
	if input.Impact < domain.MinScale || input.Impact > domain.MaxScale {
		errs = append(errs, fmt.Errorf("impact must be between %d and %d", domain.MinScale, domain.MaxScale))
	}
	if input.Feasibility < domain.MinScale || input.Feasibility > domain.MaxScale {
		errs = append(errs, fmt.Errorf("feasibility must be between %d and %d", domain.MinScale, domain.MaxScale))
	}
	if math.IsNaN(input.TimeSpent) || math.IsInf(input.TimeSpent, 0) || input.TimeSpent <= 0 {
		errs = append(errs, errors.New("timeSpent must be greater than zero"))
	}
	return errors.Join(errs...)
}
