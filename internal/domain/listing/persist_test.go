package listing

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"hwportal/internal/platform/db"
)

func TestMemoryPersisterRoundTrip(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	if _, ok, _ := p.Load(ctx, "u1", "assets"); ok {
		t.Fatal("expected nothing saved yet")
	}
	f := DefaultFilters().Apply(Patch{Status: strPtr("Submitted"), Facilities: idsPtr("FAC-1")})
	if err := p.Save(ctx, "u1", "assets", f); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	f.Facilities[0] = "mutated"
	got, ok, err := p.Load(ctx, "u1", "assets")
	if err != nil || !ok {
		t.Fatalf("load failed: %v %v", ok, err)
	}
	if got.Status != "Submitted" || got.Facilities[0] != "FAC-1" {
		t.Fatalf("unexpected filters %+v", got)
	}
	if _, ok, _ := p.Load(ctx, "u2", "assets"); ok {
		t.Fatal("filters must be scoped per owner")
	}
}

func TestRegistrySeedsStoresFromSavedFilters(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	saved := DefaultFilters().Apply(Patch{Page: intPtr(4), Status: strPtr("Confirmed")})
	_ = p.Save(ctx, "alice", Affiliations.Key, saved)

	reg := NewRegistry(Affiliations, &fakeListBackend{}, "hq", p, 0)
	defer reg.Close()

	alice := reg.For(ctx, "alice")
	if alice != reg.For(ctx, "alice") {
		t.Fatal("expected the same store for the same owner")
	}
	if st := alice.State(); st.Filters.Page != 4 || st.Filters.Status != "Confirmed" {
		t.Fatalf("expected saved filters, got %+v", st.Filters)
	}
	bob := reg.For(ctx, "bob")
	if st := bob.State(); st.Filters.Page != 1 || st.Filters.Status != "" {
		t.Fatalf("expected defaults for new owner, got %+v", st.Filters)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 stores, got %d", reg.Len())
	}

	if _, err := bob.Update(ctx, Patch{Status: strPtr("Pending")}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stored, ok, _ := p.Load(ctx, "bob", Affiliations.Key)
	if !ok || stored.Status != "Pending" {
		t.Fatalf("expected update to persist, got %+v", stored)
	}
}

func TestPgPersisterRoundTrip(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	p := NewPgPersister(pool)
	owner := "persist-test-owner"
	if _, err := pool.Exec(ctx, "DELETE FROM list_filter_preferences WHERE owner_id = $1", owner); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok, err := p.Load(ctx, owner, "facilities"); err != nil || ok {
		t.Fatalf("expected no row, got ok=%v err=%v", ok, err)
	}
	f := DefaultFilters().Apply(Patch{Search: strPtr("kenyatta"), DateFrom: strPtr("2025-01-01")})
	if err := p.Save(ctx, owner, "facilities", f); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Search = "moi"
	if err := p.Save(ctx, owner, "facilities", f); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, ok, err := p.Load(ctx, owner, "facilities")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Search != "moi" || got.DateFrom != "2025-01-01" {
		t.Fatalf("unexpected filters %+v", got)
	}
}
