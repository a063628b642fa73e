package listing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hwportal/internal/platform/backend"
)

type fakeListBackend struct {
	method string
	req    backend.ListRequest
	resp   backend.ListResponse
	doc    string
	err    error
}

func (f *fakeListBackend) List(ctx context.Context, method string, req backend.ListRequest) (backend.ListResponse, error) {
	f.method = method
	f.req = req
	return f.resp, f.err
}

func (f *fakeListBackend) GetDoc(ctx context.Context, doctype, name string, out any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.doc), out)
}

func TestAffiliationFetcherUsesServerAggregates(t *testing.T) {
	fb := &fakeListBackend{resp: backend.ListResponse{
		Items: []json.RawMessage{
			json.RawMessage(`{"name":"AFF-1","professional_name":"Jane Wanjiru","affiliation_status":"Confirmed","health_facility":"FAC-001","creation":"2025-02-01 08:00:00"}`),
			json.RawMessage(`{"name":"AFF-2","health_professional_name":"Otieno Omondi"}`),
		},
		TotalCount:       57,
		StatusAggregates: json.RawMessage(`{"total":57,"confirmed":30,"confirmation_rate":52.6}`),
	}}
	fetch := Affiliations.Fetcher(fb, "careverse_hq.api")
	f := DefaultFilters().Apply(Patch{Search: strPtr("jane"), Facilities: idsPtr("FAC-001")})

	res, err := fetch(context.Background(), f)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if fb.method != "careverse_hq.api.affiliations.get_affiliations" {
		t.Fatalf("unexpected method %q", fb.method)
	}
	if fb.req.SearchParam != "professional_name" || fb.req.Search != "jane" || fb.req.Facilities[0] != "FAC-001" {
		t.Fatalf("unexpected request %+v", fb.req)
	}
	if res.TotalCount != 57 || len(res.Items) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Aggregates == nil || res.Aggregates.PageLocal || res.Aggregates.Confirmed != 30 {
		t.Fatalf("expected server aggregates, got %+v", res.Aggregates)
	}
	second := res.Items[1]
	if second.ProfessionalName != "Otieno Omondi" || second.Status != "Pending" {
		t.Fatalf("expected defensive defaults, got %+v", second)
	}
	if res.Items[0].FacilityName != "FAC-001" || res.Items[0].RequestedAt == nil {
		t.Fatalf("unexpected first row %+v", res.Items[0])
	}
}

func TestAffiliationFetcherFallsBackToPageCounts(t *testing.T) {
	fb := &fakeListBackend{resp: backend.ListResponse{
		Items: []json.RawMessage{
			json.RawMessage(`{"name":"AFF-1","affiliation_status":"Confirmed"}`),
			json.RawMessage(`{"name":"AFF-2","affiliation_status":"Rejected"}`),
			json.RawMessage(`"garbage"`),
		},
		TotalCount: 90,
	}}
	res, err := Affiliations.Fetcher(fb, "")(context.Background(), DefaultFilters())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected undecodable row skipped, got %d", len(res.Items))
	}
	agg := res.Aggregates
	if agg == nil || !agg.PageLocal || agg.Total != 2 || agg.ConfirmationRate != 50 {
		t.Fatalf("expected page-local aggregate, got %+v", agg)
	}
	if res.TotalCount != 90 {
		t.Fatalf("expected server total kept, got %d", res.TotalCount)
	}
}

func TestNonAggregatedModuleHasNoAggregates(t *testing.T) {
	fb := &fakeListBackend{resp: backend.ListResponse{
		Items: []json.RawMessage{json.RawMessage(`{"name":"PO-1","supplier_name":"MedSupplies","grand_total":"1500.50","per_received":"250"}`)},
	}}
	res, err := PurchaseOrders.Fetcher(fb, "hq")(context.Background(), DefaultFilters())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Aggregates != nil {
		t.Fatalf("expected no aggregates, got %+v", res.Aggregates)
	}
	po := res.Items[0]
	if po.GrandTotal != 1500.5 || po.PerReceived != 100 || po.Status != "Draft" || po.Currency != "KES" {
		t.Fatalf("unexpected purchase order %+v", po)
	}
	if res.TotalCount != 1 {
		t.Fatalf("expected total to fall back to item count, got %d", res.TotalCount)
	}
}

func TestDetail(t *testing.T) {
	fb := &fakeListBackend{doc: `{"name":"HF-1","facility_id":"FAC-001","facility_name":"Kenyatta","bed_capacity":"1800","operational_status":"Operational"}`}
	fac, err := Facilities.Detail(context.Background(), fb, "HF-1")
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}
	if fac.ID != "FAC-001" || fac.BedCapacity != 1800 || fac.Status != "Operational" {
		t.Fatalf("unexpected facility %+v", fac)
	}

	fb = &fakeListBackend{err: &backend.ServerError{Op: "x", Status: http.StatusNotFound}}
	if _, err := Assets.Detail(context.Background(), fb, "A-1"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFetcherAgainstUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"success":true,"data":{"items":[{"name":"EC-1","employee_name":"Akinyi","total_claimed_amount":"200"}],"total_count":1}}}`))
	}))
	defer server.Close()

	res, err := ExpenseClaims.Fetcher(backend.New(backend.Config{BaseURL: server.URL}), "hq")(context.Background(), DefaultFilters())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].TotalClaimed != 200 || res.Items[0].EmployeeName != "Akinyi" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestModulesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Modules() {
		if seen[m.Key] {
			t.Fatalf("duplicate module %s", m.Key)
		}
		seen[m.Key] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 modules, got %d", len(seen))
	}
}
