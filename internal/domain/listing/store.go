package listing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var (
	// ErrSuperseded is returned by a fetch whose result lost to a newer one.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	ErrClosed     = errors.New("list store closed")
)

// Result is one page returned by a Fetcher.
type Result[T any] struct {
	Items      []T
	TotalCount int
	Aggregates *StatusAggregate
}

type Fetcher[T any] func(ctx context.Context, f Filters) (Result[T], error)

// SaveFunc persists merged filters after an update.
type SaveFunc func(ctx context.Context, f Filters) error

type State[T any] struct {
	Filters       Filters          `json:"filters"`
	Items         []T              `json:"items"`
	TotalCount    int              `json:"totalCount"`
	Aggregates    *StatusAggregate `json:"aggregates"`
	Loading       bool             `json:"loading"`
	SearchPending bool             `json:"searchPending"`
	LastError     string           `json:"lastError,omitempty"`
	FetchedAt     *time.Time       `json:"fetchedAt,omitempty"`
	Seq           uint64           `json:"seq"`
}

type StoreOptions struct {
	Name     string
	Initial  Filters
	Save     SaveFunc
	Debounce time.Duration
}

// Store holds the filters and last applied result of one list view. Every
// fetch takes a sequence number when it starts; a result is applied only if
// its number is higher than the last applied one, and starting a fetch
// cancels the one still in flight.
type Store[T any] struct {
	mu    sync.Mutex
	name  string
	fetch Fetcher[T]
	save  SaveFunc

	filters    Filters
	items      []T
	totalCount int
	aggregates *StatusAggregate
	loading    bool
	lastError  string
	fetchedAt  time.Time

	issued   uint64
	applied  uint64
	inFlight context.CancelFunc

	lifetime context.Context
	shutdown context.CancelFunc
	search   *Debouncer
	closed   bool
}

func NewStore[T any](fetch Fetcher[T], opts StoreOptions) *Store[T] {
	initial := opts.Initial
	if initial.Page == 0 && initial.PageSize == 0 {
		initial = DefaultFilters()
	}
	lifetime, shutdown := context.WithCancel(context.Background())
	return &Store[T]{
		name:     opts.Name,
		fetch:    fetch,
		save:     opts.Save,
		filters:  initial.normalize(),
		items:    []T{},
		lifetime: lifetime,
		shutdown: shutdown,
		search:   NewDebouncer(opts.Debounce),
	}
}

// Fetch loads a page with the current filters. A non-nil facilities slice
// replaces the stored facility selection first. On failure the previous
// result stays in place.
func (s *Store[T]) Fetch(ctx context.Context, facilities []string) (State[T], error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State[T]{}, ErrClosed
	}
	if facilities != nil {
		s.filters.Facilities = cleanIDs(facilities)
	}
	s.issued++
	seq := s.issued
	filters := s.filters.clone()
	if s.inFlight != nil {
		s.inFlight()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	stopLink := context.AfterFunc(s.lifetime, cancel)
	s.inFlight = cancel
	s.loading = true
	s.mu.Unlock()

	if facilities != nil && s.save != nil {
		if err := s.save(ctx, filters); err != nil {
			slog.Warn("list filters not persisted", "list", s.name, "err", err)
		}
	}

	result, err := s.fetch(fetchCtx, filters)
	stopLink()
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	latest := seq == s.issued
	if latest {
		s.inFlight = nil
		s.loading = false
	}

	if err != nil {
		if !latest || seq <= s.applied {
			return s.snapshotLocked(), ErrSuperseded
		}
		if s.closed {
			return s.snapshotLocked(), ErrClosed
		}
		slog.Warn("list fetch failed", "list", s.name, "seq", seq, "err", err)
		s.lastError = err.Error()
		return s.snapshotLocked(), err
	}
	if seq <= s.applied {
		return s.snapshotLocked(), ErrSuperseded
	}

	s.applied = seq
	s.items = result.Items
	if s.items == nil {
		s.items = []T{}
	}
	s.totalCount = result.TotalCount
	s.aggregates = result.Aggregates
	s.lastError = ""
	s.fetchedAt = time.Now()
	return s.snapshotLocked(), nil
}

// Update merges p into the filters, persists them and fetches.
func (s *Store[T]) Update(ctx context.Context, p Patch) (State[T], error) {
	if err := p.Validate(); err != nil {
		return s.State(), err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return State[T]{}, ErrClosed
	}
	s.filters = s.filters.Apply(p)
	merged := s.filters.clone()
	s.mu.Unlock()

	if s.save != nil {
		if err := s.save(ctx, merged); err != nil {
			slog.Warn("list filters not persisted", "list", s.name, "err", err)
		}
	}
	return s.Fetch(ctx, nil)
}

// Search schedules a debounced update of the search term. The fetch runs
// with the values of ctx but not its deadline, so it can outlive the call.
func (s *Store[T]) Search(ctx context.Context, term string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	detached := context.WithoutCancel(ctx)
	s.search.Trigger(func() {
		_, err := s.Update(detached, Patch{Search: &term})
		if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClosed) {
			slog.Debug("debounced search fetch failed", "list", s.name, "err", err)
		}
	})
	return nil
}

func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops the pending search and cancels any fetch in flight.
func (s *Store[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.search.Stop()
	s.shutdown()
}

func (s *Store[T]) snapshotLocked() State[T] {
	state := State[T]{
		Filters:       s.filters.clone(),
		Items:         slices.Clone(s.items),
		TotalCount:    s.totalCount,
		Loading:       s.loading,
		SearchPending: s.search.Pending(),
		LastError:     s.lastError,
		Seq:           s.applied,
	}
	if s.aggregates != nil {
		agg := *s.aggregates
		state.Aggregates = &agg
	}
	if !s.fetchedAt.IsZero() {
		at := s.fetchedAt
		state.FetchedAt = &at
	}
	return state
}
