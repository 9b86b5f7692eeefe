package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/core/ports"
)

const (
	DefaultSessionID    = "default"
	maxSessionIDLength  = 128
	defaultReadyTimeout = 5 * time.Second
	defaultSessionIdle  = 30 * time.Minute
)

type ViewConfig struct {
	DefaultItemsPerPage int
	ReadyTimeout        time.Duration
	SessionIdleTimeout  time.Duration
}

func (c ViewConfig) normalize() ViewConfig {
	out := c
	if out.DefaultItemsPerPage <= 0 {
		out.DefaultItemsPerPage = domain.DefaultItemsPerPage
	}
	if out.ReadyTimeout <= 0 {
		out.ReadyTimeout = defaultReadyTimeout
	}
	if out.SessionIdleTimeout <= 0 {
		out.SessionIdleTimeout = defaultSessionIdle
	}
	return out
}

// ViewService owns the filter and pagination state of every dashboard session.
// Each command runs one update, recompute, clamp and render cycle under the
// session lock.
type ViewService struct {
	store    *ProcessStore
	observer ports.ViewObserver
	cfg      ViewConfig
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*viewSession
}

type viewSession struct {
	mu sync.Mutex

	filters domain.FilterState
	page    int
	size    domain.PageSize

	computed bool
	version  uint64
	result   FilterResult

	lastSeen time.Time
}

func NewViewService(store *ProcessStore, observer ports.ViewObserver, cfg ViewConfig) *ViewService {
	return &ViewService{
		store:    store,
		observer: observer,
		cfg:      cfg.normalize(),
		now:      time.Now,
		sessions: make(map[string]*viewSession),
	}
}

func (s *ViewService) View(ctx context.Context, session string) (*domain.View, error) {
	return s.mutate(ctx, session, nil)
}

func (s *ViewService) Filtered(ctx context.Context, session string) ([]domain.Process, error) {
	var out []domain.Process
	_, err := s.run(ctx, session, nil, func(sess *viewSession) {
		out = slices.Clone(sess.result.Processes)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ViewService) OnFilterChanged(ctx context.Context, session string, update domain.FilterUpdate) (*domain.View, error) {
	if err := validateFilterUpdate(update); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "filter changed", err)
	}
	return s.mutate(ctx, session, func(sess *viewSession) {
		sess.filters = update.Apply(sess.filters)
		sess.page = 1
		sess.computed = false
	})
}

func (s *ViewService) ClearFilters(ctx context.Context, session string) (*domain.View, error) {
	return s.mutate(ctx, session, func(sess *viewSession) {
		sess.filters = domain.FilterState{}
		sess.page = 1
		sess.computed = false
	})
}

func (s *ViewService) SetPage(ctx context.Context, session string, page int) (*domain.View, error) {
	return s.mutate(ctx, session, func(sess *viewSession) {
		sess.page = page
	})
}

func (s *ViewService) SetItemsPerPage(ctx context.Context, session string, size domain.PageSize) (*domain.View, error) {
	if !size.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "set items per page", fmt.Errorf("invalid page size %q", size.String()))
	}
	return s.mutate(ctx, session, func(sess *viewSession) {
		sess.size = size
		sess.page = 1
	})
}

func (s *ViewService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *ViewService) mutate(ctx context.Context, session string, apply func(*viewSession)) (*domain.View, error) {
	return s.run(ctx, session, apply, nil)
}

func (s *ViewService) run(ctx context.Context, session string, apply, inspect func(*viewSession)) (*domain.View, error) {
	id, err := normalizeSessionID(session)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve session", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	defer cancel()
	if err := s.store.WaitReady(waitCtx); err != nil {
		return nil, err
	}
	snapshot := s.store.Snapshot()

	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if apply != nil {
		apply(sess)
	}
	view := s.render(id, sess, snapshot)
	if inspect != nil {
		inspect(sess)
	}
	return view, nil
}

func (s *ViewService) render(id string, sess *viewSession, snapshot StoreSnapshot) *domain.View {
	if !sess.computed || sess.version != snapshot.Version {
		sess.result = FilterProcesses(snapshot.Processes, sess.filters)
		sess.version = snapshot.Version
		sess.computed = true
		if s.observer != nil {
			s.observer.ObserveRecompute(sess.result.Reason, len(sess.result.Processes), len(snapshot.Processes))
		}
	}

	page := Paginate(sess.result.Processes, sess.page, sess.size)
	sess.page = page.CurrentPage

	return &domain.View{
		Session:       id,
		Filters:       sess.filters,
		Page:          page,
		Showing:       page.Label(),
		FilteredCount: len(sess.result.Processes),
		StoreCount:    len(snapshot.Processes),
		EmptyReason:   sess.result.Reason,
		Departments:   slices.Clone(snapshot.Departments),
		StoreVersion:  snapshot.Version,
	}
}

func (s *ViewService) session(id string) *viewSession {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = now
		return sess
	}

	for key, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.cfg.SessionIdleTimeout {
			delete(s.sessions, key)
		}
	}

	sess := &viewSession{
		page:     1,
		size:     domain.PageSizeOf(s.cfg.DefaultItemsPerPage),
		lastSeen: now,
	}
	s.sessions[id] = sess
	return sess
}

func normalizeSessionID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return DefaultSessionID, nil
	}
	if len(id) > maxSessionIDLength {
		return "", fmt.Errorf("session id longer than %d bytes", maxSessionIDLength)
	}
	return id, nil
}

func validateFilterUpdate(update domain.FilterUpdate) error {
	var errs []error
	check := func(name string, v *float64) {
		if v == nil {
			return
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative number", name))
		}
	}
	check("minImpact", update.MinImpact)
	check("minFeasibility", update.MinFeasibility)
	check("minAutomation", update.MinAutomation)
	return errors.Join(errs...)
}
