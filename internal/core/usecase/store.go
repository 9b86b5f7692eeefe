package usecase

import (
	"context"
	"slices"
	"sync"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

type StoreSnapshot struct {
	Processes   []domain.Process
	Departments []string
	Version     uint64
}

// ProcessStore is the in-memory, insertion-ordered copy of the backend.
// Snapshots are never mutated after Replace, so callers may share them.
type ProcessStore struct {
	mu          sync.RWMutex
	processes   []domain.Process
	departments []string
	version     uint64

	ready     chan struct{}
	readyOnce sync.Once
}

func NewProcessStore() *ProcessStore {
	return &ProcessStore{
		processes:   []domain.Process{},
		departments: []string{},
		ready:       make(chan struct{}),
	}
}

// Replace overwrites the whole collection and marks the store ready.
func (s *ProcessStore) Replace(processes []domain.Process) uint64 {
	copied := slices.Clone(processes)
	if copied == nil {
		copied = []domain.Process{}
	}
	departments := distinctDepartments(copied)

	s.mu.Lock()
	s.processes = copied
	s.departments = departments
	s.version++
	version := s.version
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	return version
}

func (s *ProcessStore) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreSnapshot{
		Processes:   s.processes,
		Departments: s.departments,
		Version:     s.version,
	}
}

func (s *ProcessStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

func (s *ProcessStore) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the first load resolved or ctx is done.
func (s *ProcessStore) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return domain.WrapError(domain.ErrNotReady, "wait for process store", ctx.Err())
	}
}

func distinctDepartments(processes []domain.Process) []string {
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, p := range processes {
		if _, ok := seen[p.Department]; ok {
			continue
		}
		seen[p.Department] = struct{}{}
		out = append(out, p.Department)
	}
	slices.Sort(out)
	return out
}
