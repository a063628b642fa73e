package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type call struct {
	filters Filters
	ctx     context.Context
	reply   chan reply
}

type reply struct {
	result Result[string]
	err    error
}

// scriptedFetcher hands every fetch to the test, which decides when and how
// it resolves.
type scriptedFetcher struct {
	calls chan call
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan call, 8)}
}

func (f *scriptedFetcher) fetch(ctx context.Context, filters Filters) (Result[string], error) {
	c := call{filters: filters, ctx: ctx, reply: make(chan reply, 1)}
	f.calls <- c
	r := <-c.reply
	return r.result, r.err
}

func (f *scriptedFetcher) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch")
		return call{}
	}
}

func page(items ...string) Result[string] {
	return Result[string]{Items: items, TotalCount: len(items)}
}

func immediate(items ...string) Fetcher[string] {
	return func(ctx context.Context, f Filters) (Result[string], error) {
		return page(items...), nil
	}
}

func TestUpdateResetsPageAndFetches(t *testing.T) {
	var mu sync.Mutex
	var seen []Filters
	var saved []Filters
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		mu.Lock()
		seen = append(seen, f)
		mu.Unlock()
		return page("row"), nil
	}, StoreOptions{
		Initial: Filters{Page: 5, PageSize: 20, Facilities: []string{"FAC-1"}},
		Save: func(ctx context.Context, f Filters) error {
			saved = append(saved, f)
			return nil
		},
	})
	defer store.Close()

	state, err := store.Update(context.Background(), Patch{Status: strPtr("Pending")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if state.Filters.Page != 1 || len(seen) != 1 || seen[0].Page != 1 || seen[0].Status != "Pending" {
		t.Fatalf("expected reset page fetch, got state %+v seen %+v", state.Filters, seen)
	}
	if len(seen[0].Facilities) != 1 || seen[0].Facilities[0] != "FAC-1" {
		t.Fatalf("expected facilities in fetch, got %v", seen[0].Facilities)
	}

	state, err = store.Update(context.Background(), Patch{Page: intPtr(3)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if state.Filters.Page != 3 || state.Filters.Status != "Pending" {
		t.Fatalf("expected page 3 with status kept, got %+v", state.Filters)
	}
	if len(saved) != 2 || saved[1].Page != 3 {
		t.Fatalf("expected merged filters persisted, got %+v", saved)
	}
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	calls := 0
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		calls++
		return page(), nil
	}, StoreOptions{})
	defer store.Close()

	if _, err := store.Update(context.Background(), Patch{Page: intPtr(-1)}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected invalid filter, got %v", err)
	}
	if calls != 0 {
		t.Fatal("invalid patch must not fetch")
	}
}

func TestLaterFetchWinsWhenEarlierResolvesLast(t *testing.T) {
	f := newScriptedFetcher()
	store := NewStore(f.fetch, StoreOptions{})
	defer store.Close()

	type outcome struct {
		state State[string]
		err   error
	}
	aDone := make(chan outcome, 1)
	go func() {
		s, err := store.Update(context.Background(), Patch{Status: strPtr("A")})
		aDone <- outcome{s, err}
	}()
	a := f.next(t)

	bDone := make(chan outcome, 1)
	go func() {
		s, err := store.Update(context.Background(), Patch{Status: strPtr("B")})
		bDone <- outcome{s, err}
	}()
	b := f.next(t)

	if a.ctx.Err() == nil {
		t.Fatal("expected the superseded fetch to be cancelled")
	}

	b.reply <- reply{result: page("b1", "b2")}
	bRes := <-bDone
	if bRes.err != nil {
		t.Fatalf("fetch B failed: %v", bRes.err)
	}

	a.reply <- reply{result: page("a1")}
	aRes := <-aDone
	if !errors.Is(aRes.err, ErrSuperseded) {
		t.Fatalf("expected A to be superseded, got %v", aRes.err)
	}

	final := store.State()
	if len(final.Items) != 2 || final.Items[0] != "b1" || final.Filters.Status != "B" {
		t.Fatalf("expected B's result to stand, got %+v", final)
	}
	if final.Loading {
		t.Fatal("expected loading cleared")
	}
}

func TestFailedFetchKeepsPreviousResult(t *testing.T) {
	fail := false
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		if fail {
			return Result[string]{}, errors.New("upstream unavailable")
		}
		return Result[string]{Items: []string{"x", "y"}, TotalCount: 40, Aggregates: &StatusAggregate{Total: 40}}, nil
	}, StoreOptions{Name: "affiliations"})
	defer store.Close()

	if _, err := store.Fetch(context.Background(), nil); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	fail = true
	state, err := store.Fetch(context.Background(), nil)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if len(state.Items) != 2 || state.TotalCount != 40 || state.Aggregates == nil || state.Aggregates.Total != 40 {
		t.Fatalf("expected stale result kept, got %+v", state)
	}
	if state.Loading || state.LastError != "upstream unavailable" {
		t.Fatalf("expected loading cleared with error recorded, got %+v", state)
	}
}

func TestFetchFacilityOverrideReplacesSelection(t *testing.T) {
	var got Filters
	var saved []Filters
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		got = f
		return page(), nil
	}, StoreOptions{
		Initial: Filters{Page: 2, PageSize: 10, Facilities: []string{"OLD"}},
		Save: func(ctx context.Context, f Filters) error {
			saved = append(saved, f)
			return nil
		},
	})
	defer store.Close()

	state, err := store.Fetch(context.Background(), []string{"FAC-9", "FAC-9"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got.Facilities) != 1 || got.Facilities[0] != "FAC-9" || state.Filters.Page != 2 {
		t.Fatalf("unexpected fetch filters %+v", got)
	}

	if _, err := store.Fetch(context.Background(), nil); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Facilities[0] != "FAC-9" {
		t.Fatalf("expected override to stick, got %v", got.Facilities)
	}
	if len(saved) != 1 || len(saved[0].Facilities) != 1 || saved[0].Facilities[0] != "FAC-9" || saved[0].Page != 2 {
		t.Fatalf("expected only the override to be persisted once, got %+v", saved)
	}
}

func TestCloseCancelsInFlightFetch(t *testing.T) {
	f := newScriptedFetcher()
	store := NewStore(f.fetch, StoreOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := store.Fetch(context.Background(), nil)
		done <- err
	}()
	c := f.next(t)
	store.Close()

	select {
	case <-c.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected in-flight fetch to be cancelled on close")
	}
	c.reply <- reply{err: c.ctx.Err()}
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := store.Fetch(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed store to refuse fetches, got %v", err)
	}
}

func TestSearchIsDebounced(t *testing.T) {
	var mu sync.Mutex
	var searches []string
	fetched := make(chan struct{}, 4)
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		mu.Lock()
		searches = append(searches, f.Search)
		mu.Unlock()
		fetched <- struct{}{}
		return page(f.Search), nil
	}, StoreOptions{Debounce: 30 * time.Millisecond})
	defer store.Close()

	for _, term := range []string{"j", "ja", "jan", "jane"} {
		if err := store.Search(context.Background(), term); err != nil {
			t.Fatalf("search failed: %v", err)
		}
	}
	if !store.State().SearchPending {
		t.Fatal("expected a pending search")
	}

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced search never fired")
	}
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(searches) != 1 || searches[0] != "jane" {
		t.Fatalf("expected a single fetch for the last term, got %v", searches)
	}
}

func TestCloseStopsPendingSearch(t *testing.T) {
	calls := make(chan struct{}, 1)
	store := NewStore(func(ctx context.Context, f Filters) (Result[string], error) {
		calls <- struct{}{}
		return page(), nil
	}, StoreOptions{Debounce: 20 * time.Millisecond})

	_ = store.Search(context.Background(), "late")
	store.Close()

	select {
	case <-calls:
		t.Fatal("search fired after close")
	case <-time.After(80 * time.Millisecond):
	}
	if err := store.Search(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestStateIsACopy(t *testing.T) {
	store := NewStore(immediate("a", "b"), StoreOptions{})
	defer store.Close()
	if _, err := store.Fetch(context.Background(), nil); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	state := store.State()
	state.Items[0] = "mutated"
	state.Filters.Facilities = append(state.Filters.Facilities, "X")
	again := store.State()
	if again.Items[0] != "a" || len(again.Filters.Facilities) != 0 {
		t.Fatalf("store state leaked: %+v", again)
	}
	if again.Seq != 1 || again.FetchedAt == nil {
		t.Fatalf("expected seq and fetch time recorded, got %+v", again)
	}
}
