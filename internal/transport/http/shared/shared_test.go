package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hwportal/internal/domain/bulkjobs"
	"hwportal/internal/domain/listing"
	"hwportal/internal/domain/upload"
	"hwportal/internal/platform/backend"
)

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=1000", nil)
	got := ParsePagination(req, 20, 100)
	if got.Page != 3 || got.PerPage != 100 {
		t.Fatalf("unexpected pagination %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&per_page=abc", nil)
	got = ParsePagination(req, 20, 100)
	if got.Page != 1 || got.PerPage != 20 {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("facilityId", " ")
	if got := v.OneOf("order", "sideways", "asc", "desc"); got != "" {
		t.Fatalf("expected rejected order, got %q", got)
	}
	if got := v.OneOf("status", "completed", "Queued", "Completed"); got != "Completed" {
		t.Fatalf("expected canonical spelling, got %q", got)
	}
	if got := v.Duration("wait", "5m", time.Minute); got != 0 {
		t.Fatalf("expected rejected duration, got %v", got)
	}
	if got := v.Duration("other", "2s", time.Minute); got != 2*time.Second {
		t.Fatalf("unexpected duration %v", got)
	}

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %+v", issues)
	}
	if issues[0].Field != "facilityId" || issues[2].Field != "wait" {
		t.Fatalf("issues not sorted: %+v", issues)
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected rejection, got %d", rec.Code)
	}
}

func TestFailErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"validation", &upload.ValidationError{Issues: []upload.Issue{{Kind: upload.KindEmptyFile, Message: "empty"}}, Total: 1}, http.StatusBadRequest, "validation_error"},
		{"parse", &upload.ParseError{Line: 3, Err: errors.New("bad quote")}, http.StatusBadRequest, "validation_error"},
		{"filter", fmt.Errorf("%w: page must be at least 1", listing.ErrInvalidFilter), http.StatusBadRequest, "validation_error"},
		{"session", upload.ErrSessionNotFound, http.StatusNotFound, "not_found"},
		{"job", bulkjobs.ErrJobNotFound, http.StatusNotFound, "not_found"},
		{"state", upload.ErrWrongStep, http.StatusConflict, "invalid_state"},
		{"submission", &bulkjobs.SubmissionError{Message: "Facility is mandatory"}, http.StatusBadGateway, "upstream_error"},
		{"server", &backend.ServerError{Op: "x", Status: 500}, http.StatusBadGateway, "upstream_error"},
		{"network", &backend.NetworkError{Op: "x", Err: errors.New("refused")}, http.StatusBadGateway, "upstream_error"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FailError(rec, tc.err, "req-1")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var env struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.kind {
				t.Fatalf("expected code %s, got %s", tc.kind, env.Error.Code)
			}
		})
	}
}

func TestFailErrorUsesServerMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, &bulkjobs.SubmissionError{Message: "Facility is mandatory", Err: &backend.ServerError{Status: 417}}, "")
	var env map[string]map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env["error"]["message"] != "Facility is mandatory" {
		t.Fatalf("unexpected error %+v", env["error"])
	}
}
