package listing

import (
	"encoding/json"
	"testing"
)

func TestDecodeAggregate(t *testing.T) {
	agg := DecodeAggregate(json.RawMessage(`{"total":"120","pending":20,"confirmed":80,"rejected":"10","confirmation_rate":66.67,"rejection_rate":"140"}`))
	if agg == nil {
		t.Fatal("expected aggregate")
	}
	if agg.Total != 120 || agg.Confirmed != 80 || agg.Rejected != 10 || agg.PageLocal {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.ConfirmationRate != 66.67 || agg.RejectionRate != 100 {
		t.Fatalf("expected rates kept within [0,100], got %+v", agg)
	}
	for _, raw := range []string{``, `null`, `[]`, `"n/a"`} {
		if DecodeAggregate(json.RawMessage(raw)) != nil {
			t.Fatalf("expected nil aggregate for %q", raw)
		}
	}
}

func TestCountPageStatuses(t *testing.T) {
	agg := CountPageStatuses([]string{"Confirmed", "confirmed", "Pending", "Rejected", "Active", "Unknown"})
	if !agg.PageLocal || agg.Total != 6 || agg.Confirmed != 2 || agg.Pending != 1 || agg.Active != 1 {
		t.Fatalf("unexpected counts %+v", agg)
	}
	if agg.ConfirmationRate != 33.3 || agg.RejectionRate != 16.7 {
		t.Fatalf("unexpected rates %+v", agg)
	}
	if empty := CountPageStatuses(nil); empty.ConfirmationRate != 0 || empty.Total != 0 {
		t.Fatalf("unexpected empty aggregate %+v", empty)
	}
}
