package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hwportal/internal/platform/config"
)

func testConfig(backendURL string) config.Config {
	return config.Config{
		Addr:                   ":0",
		Environment:            "test",
		BackendURL:             backendURL,
		BackendTimeout:         time.Second,
		BackendRPS:             100,
		BackendBurst:           10,
		ListMethodPrefix:       "hq",
		JobsMethod:             "jobs.list",
		JobAggregationMode:     config.AggregationPreAggregated,
		AggregationConcurrency: 2,
		JobPageSize:            20,
		SearchDebounce:         10 * time.Millisecond,
		UploadSessionTTL:       time.Hour,
		MaxBodyBytes:           1 << 20,
		MetricsEnabled:         true,
		RateLimit:              100,
		RateLimitWindow:        time.Minute,
		MaintenanceInterval:    time.Minute,
		DevTrustUserHeader:     true,
	}
}

func TestAppRoutes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	app, err := New(context.Background(), testConfig(upstream.URL))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	get := func(path string, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			req.Header.Set("X-Portal-User", user)
		}
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := get("/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz without db should be ready, got %d", rec.Code)
	}
	if rec := get("/api/v1/lists", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}

	rec := get("/api/v1/lists", "admin@example.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("lists: %d %s", rec.Code, rec.Body.String())
	}
	for _, key := range []string{"affiliations", "expense-claims", "purchase-orders", "material-requests", "assets", "facilities"} {
		if !strings.Contains(rec.Body.String(), `"`+key+`"`) {
			t.Fatalf("expected module %s in %s", key, rec.Body.String())
		}
	}
	if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-Content-Type-Options") == "" {
		t.Fatal("expected request id and security headers")
	}

	if rec := get("/metrics", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected metrics to require identity, got %d", rec.Code)
	}
	rec = get("/metrics", "ops@example.com")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "requestsTotal") || !strings.Contains(rec.Body.String(), "uploadSessions") {
		t.Fatalf("unexpected metrics %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionSweepRunsAsJob(t *testing.T) {
	app, err := New(context.Background(), testConfig("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	app.Sessions.Create("owner-1")
	removed := app.Sessions.SweepIdle(-time.Second)
	if removed != 1 || app.Sessions.Len() != 0 {
		t.Fatalf("expected the session to be swept, removed=%d len=%d", removed, app.Sessions.Len())
	}
}
