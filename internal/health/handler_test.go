package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devstack/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChecker_RegisterAndCheck(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	checker := NewChecker().WithMetrics(m)

	checker.RegisterCheck("success", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("failure", func(ctx context.Context) error { return errors.New("check failed") })
	checker.RegisterCheck("upstream", func(ctx context.Context) error { return Degraded(errors.New("refused")) })

	results := checker.CheckHealth(context.Background())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := map[string]Status{
		"success":  StatusHealthy,
		"failure":  StatusUnhealthy,
		"upstream": StatusDegraded,
	}
	for name, status := range want {
		if results[name].Status != status {
			t.Errorf("%s: status = %s, want %s", name, results[name].Status, status)
		}
	}
	if results["failure"].Error != "check failed" {
		t.Errorf("failure error = %q", results["failure"].Error)
	}

	if got := testutil.ToFloat64(m.HealthCheckStatus.WithLabelValues("success")); got != 1 {
		t.Errorf("success gauge = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.HealthCheckStatus.WithLabelValues("upstream")); got != 0 {
		t.Errorf("upstream gauge = %f, want 0", got)
	}
}

func TestChecker_ReplaceChecks(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("old", func(ctx context.Context) error { return nil })

	checker.ReplaceChecks(map[string]Check{
		"route:/api/*": func(ctx context.Context) error { return nil },
	})

	results := checker.CheckHealth(context.Background())
	if _, ok := results["old"]; ok {
		t.Error("old check survived the replacement")
	}
	if _, ok := results["route:/api/*"]; !ok {
		t.Error("new check missing")
	}
}

func TestChecker_ContextCancellation(t *testing.T) {
	checker := NewChecker()
	checker.RegisterCheck("context-aware", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	results := checker.CheckHealth(ctx)
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("check took too long: %v", d)
	}
	if results["context-aware"].Status != StatusUnhealthy {
		t.Errorf("expected canceled check to be unhealthy, got %s", results["context-aware"].Status)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]CheckResult
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"healthy", map[string]CheckResult{"a": {Status: StatusHealthy}}, StatusHealthy},
		{"degraded", map[string]CheckResult{"a": {Status: StatusHealthy}, "b": {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", map[string]CheckResult{"a": {Status: StatusDegraded}, "b": {Status: StatusUnhealthy}}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.results); got != tt.want {
				t.Errorf("Overall() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		check      Check
		wantCode   int
		wantStatus Status
	}{
		{"healthy", func(ctx context.Context) error { return nil }, http.StatusOK, StatusHealthy},
		{"degraded", func(ctx context.Context) error { return Degraded(errors.New("down")) }, http.StatusOK, StatusDegraded},
		{"unhealthy", func(ctx context.Context) error { return errors.New("broken") }, http.StatusServiceUnavailable, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker()
			checker.RegisterCheck("check", tt.check)
			handler := NewHandler(checker, "1.0.0", time.Second)

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest("GET", "/healthz", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", resp.Status, tt.wantStatus)
			}
			if resp.Version != "1.0.0" {
				t.Errorf("version = %s", resp.Version)
			}
		})
	}
}

func TestHandler_Live(t *testing.T) {
	handler := NewHandler(NewChecker(), "1.0.0", 0)

	w := httptest.NewRecorder()
	handler.Live(w, httptest.NewRequest("GET", "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
}
