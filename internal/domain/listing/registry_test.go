package listing

import (
	"context"
	"sync"
	"testing"
	"time"
)

// gatedPersister blocks Load for one owner until release is closed.
type gatedPersister struct {
	*MemoryPersister
	slowOwner string
	entered   chan struct{}
	release   chan struct{}
}

func (p *gatedPersister) Load(ctx context.Context, owner, module string) (Filters, bool, error) {
	if owner == p.slowOwner {
		p.entered <- struct{}{}
		<-p.release
	}
	return p.MemoryPersister.Load(ctx, owner, module)
}

func testRegistry(persist FilterPersister) *Registry[string] {
	return &Registry[string]{
		def:     Definition[string]{Module: Module{Key: "affiliations"}},
		fetch:   immediate(),
		persist: persist,
		stores:  map[string]*Store[string]{},
	}
}

func TestRegistrySlowLoadDoesNotBlockOtherOwners(t *testing.T) {
	persist := &gatedPersister{
		MemoryPersister: NewMemoryPersister(),
		slowOwner:       "slow",
		entered:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
	reg := testRegistry(persist)
	defer reg.Close()

	slowDone := make(chan *Store[string], 1)
	go func() { slowDone <- reg.For(context.Background(), "slow") }()
	<-persist.entered

	fast := make(chan *Store[string], 1)
	go func() { fast <- reg.For(context.Background(), "fast") }()
	select {
	case store := <-fast:
		if store == nil {
			t.Fatal("expected a store")
		}
	case <-time.After(time.Second):
		t.Fatal("store creation for another owner waited on a pending load")
	}

	close(persist.release)
	if store := <-slowDone; store == nil {
		t.Fatal("expected a store for the slow owner")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 stores, got %d", reg.Len())
	}
}

func TestRegistryConcurrentFirstUseSharesStore(t *testing.T) {
	persist := NewMemoryPersister()
	_ = persist.Save(context.Background(), "u1", "affiliations", Filters{Page: 3, PageSize: 20})
	reg := testRegistry(persist)
	defer reg.Close()

	const callers = 8
	stores := make([]*Store[string], callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stores[i] = reg.For(context.Background(), "u1")
		}()
	}
	wg.Wait()

	for _, s := range stores[1:] {
		if s != stores[0] {
			t.Fatal("expected every caller to get the same store")
		}
	}
	if reg.Len() != 1 || stores[0].State().Filters.Page != 3 {
		t.Fatalf("expected one store seeded from saved filters, got len=%d state=%+v", reg.Len(), stores[0].State().Filters)
	}
}
