package localfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

func newTestRepo(t *testing.T) *ProcessRepository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "nested", "processes.json"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return repo
}

func sampleProcess(id, dept string) domain.Process {
	return domain.Process{
		ID: id, Name: "Process " + id, Department: dept,
		Impact: 3, Feasibility: 4, AutomationScore: 12, TimeSpent: 1.5,
		CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestListOnMissingFileIsEmpty(t *testing.T) {
	processes, err := newTestRepo(t).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if processes == nil || len(processes) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", processes)
	}
}

func TestCreatePersistsInInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	want := []domain.Process{sampleProcess("b", "HR"), sampleProcess("a", "Operations"), sampleProcess("c", " operations")}
	for i := range want {
		if err := repo.Create(ctx, &want[i]); err != nil {
			t.Fatalf("Create(%s) error = %v", want[i].ID, err)
		}
	}

	reopened, err := New(repo.Path())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("persisted processes mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	p := sampleProcess("a", "HR")
	if err := repo.Create(context.Background(), &p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(context.Background(), &p); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate, got %v", err)
	}
}

func TestCreateManyWritesWholeBatchOrNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	existing := sampleProcess("b", "HR")
	if err := repo.Create(ctx, &existing); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a, dup := sampleProcess("a", "HR"), sampleProcess("b", "Operations")
	if err := repo.CreateMany(ctx, []*domain.Process{&a, &dup}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate in batch, got %v", err)
	}
	got, _ := repo.List(ctx)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("failed batch must not change the file, got %+v", got)
	}

	c, d := sampleProcess("c", "HR"), sampleProcess("d", "Operations")
	if err := repo.CreateMany(ctx, []*domain.Process{&c, &d}); err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}
	got, _ = repo.List(ctx)
	if len(got) != 3 || got[1].ID != "c" || got[2].ID != "d" {
		t.Fatalf("unexpected processes after batch %+v", got)
	}
}

func TestDeleteRemovesOnlyMatchingProcess(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		p := sampleProcess(id, "HR")
		if err := repo.Create(ctx, &p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, _ := repo.List(ctx)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected remaining processes %+v", got)
	}

	if err := repo.Delete(ctx, "b"); !domain.IsKind(err, domain.ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestDeleteAllEmptiesStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := sampleProcess("a", "HR")
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	got, _ := repo.List(ctx)
	if len(got) != 0 {
		t.Fatalf("expected empty store, got %d", len(got))
	}
}

func TestListRejectsCorruptFile(t *testing.T) {
	repo := newTestRepo(t)
	if err := os.WriteFile(repo.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
