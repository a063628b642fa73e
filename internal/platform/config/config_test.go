package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("JOB_AGGREGATION_MODE", "")

	cfg := Load()
	if cfg.BackendURL != "http://localhost:8000" {
		t.Fatalf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.JobAggregationMode != AggregationPreAggregated {
		t.Fatalf("expected pre-aggregated mode by default, got %q", cfg.JobAggregationMode)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("expected 300ms debounce, got %s", cfg.SearchDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("BACKEND_URL", "https://hq.example.org/")
	t.Setenv("JOB_AGGREGATION_MODE", "SCAN")
	t.Setenv("AGGREGATION_CONCURRENCY", "3")
	t.Setenv("SEARCH_DEBOUNCE", "50ms")

	cfg := Load()
	if cfg.BackendURL != "https://hq.example.org" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.JobAggregationMode != AggregationScan {
		t.Fatalf("expected scan mode, got %q", cfg.JobAggregationMode)
	}
	if cfg.AggregationConcurrency != 3 {
		t.Fatalf("expected concurrency 3, got %d", cfg.AggregationConcurrency)
	}
	if cfg.SearchDebounce != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %s", cfg.SearchDebounce)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		BackendURL:             "http://backend",
		JobAggregationMode:     AggregationScan,
		AggregationConcurrency: 1,
		JobPageSize:            100,
		BackendRPS:             1,
		MaxBodyBytes:           4096,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	bad := base
	bad.JobAggregationMode = "eventual"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown aggregation mode to fail")
	}

	bad = base
	bad.Environment = "production"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected production without JWT secret to fail")
	}

	bad = base
	bad.BackendURL = "ftp://backend"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected non-http backend url to fail")
	}
}

func TestValidateRateLimitWindow(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "0s")

	cfg := Load()
	if cfg.RateLimit != 10 {
		t.Fatalf("unexpected rate limit %d", cfg.RateLimit)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a zero window to be rejected")
	}
}
