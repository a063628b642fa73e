package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "file failed validation", map[string]any{"errors": []string{"Row 4"}}, "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "validation_error" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if _, ok := env.Error.Details["errors"]; !ok {
		t.Fatalf("expected details, got %+v", env.Error.Details)
	}
}

func TestSuccessWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessWithMeta(rec, []int{1, 2}, map[string]int{"total": 2}, "")
	var env map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env["meta"] == nil || env["data"] == nil || env["success"] != true {
		t.Fatalf("unexpected envelope %v", env)
	}
	if _, ok := env["requestId"]; ok {
		t.Fatal("empty request id should be omitted")
	}
}

func TestWriteJSONUnencodableData(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]any{"bad": make(chan int)}, "req-2")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unencodable data, got %d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("fallback body should be valid json: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "internal_error" {
		t.Fatalf("unexpected fallback envelope %+v", env)
	}
}
