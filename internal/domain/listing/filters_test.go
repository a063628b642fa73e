package listing

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func idsPtr(v ...string) *[]string { return &v }

func TestApplyResetsPageUnlessPatched(t *testing.T) {
	f := DefaultFilters()
	f.Page = 5
	f.Search = "jane"

	next := f.Apply(Patch{Status: strPtr("Pending")})
	if next.Page != 1 || next.Status != "Pending" || next.Search != "jane" {
		t.Fatalf("expected page reset with other filters kept, got %+v", next)
	}

	paged := next.Apply(Patch{Page: intPtr(3)})
	if paged.Page != 3 || paged.Status != "Pending" || paged.Search != "jane" || paged.PageSize != DefaultPageSize {
		t.Fatalf("expected only page to change, got %+v", paged)
	}
	if f.Page != 5 {
		t.Fatal("Apply must not mutate the receiver")
	}
}

func TestApplyFacilitiesDeduplicated(t *testing.T) {
	f := DefaultFilters().Apply(Patch{Facilities: idsPtr("FAC-1", " FAC-2 ", "", "FAC-1")})
	if len(f.Facilities) != 2 || f.Facilities[1] != "FAC-2" {
		t.Fatalf("unexpected facilities %v", f.Facilities)
	}
	cleared := f.Apply(Patch{Facilities: idsPtr()})
	if len(cleared.Facilities) != 0 {
		t.Fatalf("expected facilities cleared, got %v", cleared.Facilities)
	}
}

func TestPatchValidate(t *testing.T) {
	bad := []Patch{
		{Page: intPtr(0)},
		{PageSize: intPtr(MaxPageSize + 1)},
		{DateFrom: strPtr("01/02/2025")},
		{DateFrom: strPtr("2025-03-10"), DateTo: strPtr("2025-03-01")},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("expected invalid filter for %+v, got %v", p, err)
		}
	}
	ok := Patch{Page: intPtr(2), DateFrom: strPtr("2025-03-01"), DateTo: strPtr(""), Status: strPtr("")}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
