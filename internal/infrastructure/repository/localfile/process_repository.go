package localfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

const fileFormatVersion = 1

type document struct {
	Version   int              `json:"version"`
	Processes []domain.Process `json:"processes"`
}

// ProcessRepository keeps the whole inventory in one JSON document that is
// rewritten atomically on every mutation.
type ProcessRepository struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*ProcessRepository, error) {
	if path == "" {
		path = "./data/processes.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	return &ProcessRepository{path: path}, nil
}

func (r *ProcessRepository) Path() string {
	return r.path
}

func (r *ProcessRepository) List(ctx context.Context) ([]domain.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return nil, err
	}
	return doc.Processes, nil
}

func (r *ProcessRepository) Create(ctx context.Context, p *domain.Process) error {
	return r.update(ctx, "create process", func(doc *document) error {
		return appendProcess(doc, p)
	})
}

// CreateMany appends the batch in a single rewrite; on any duplicate the file
// is left untouched.
func (r *ProcessRepository) CreateMany(ctx context.Context, processes []*domain.Process) error {
	return r.update(ctx, "create processes", func(doc *document) error {
		for _, p := range processes {
			if err := appendProcess(doc, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func appendProcess(doc *document, p *domain.Process) error {
	for _, existing := range doc.Processes {
		if existing.ID == p.ID {
			return domain.WrapError(domain.ErrInvalidInput, "create process", fmt.Errorf("duplicate id=%s", p.ID))
		}
	}
	doc.Processes = append(doc.Processes, *p)
	return nil
}

func (r *ProcessRepository) Delete(ctx context.Context, id string) error {
	return r.update(ctx, "delete process", func(doc *document) error {
		for i, existing := range doc.Processes {
			if existing.ID == id {
				doc.Processes = append(doc.Processes[:i], doc.Processes[i+1:]...)
				return nil
			}
		}
		return domain.WrapError(domain.ErrProcessNotFound, "delete process", fmt.Errorf("id=%s", id))
	})
}

func (r *ProcessRepository) DeleteAll(ctx context.Context) error {
	return r.update(ctx, "clear processes", func(doc *document) error {
		doc.Processes = []domain.Process{}
		return nil
	})
}

func (r *ProcessRepository) update(ctx context.Context, operation string, mutate func(*document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	if err := mutate(&doc); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: encode store: %w", operation, err)
	}
	if err := atomic.WriteFile(r.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%s: write store: %w", operation, err)
	}
	return nil
}

func (r *ProcessRepository) read() (document, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{Version: fileFormatVersion, Processes: []domain.Process{}}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read local store: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("decode local store %s: %w", r.path, err)
	}
	if doc.Version > fileFormatVersion {
		return document{}, fmt.Errorf("local store %s has unsupported version %d", r.path, doc.Version)
	}
	doc.Version = fileFormatVersion
	if doc.Processes == nil {
		doc.Processes = []domain.Process{}
	}
	return doc, nil
}
