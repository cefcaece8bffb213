package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTargetCheck(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		timeout       time.Duration
		wantErr       bool
		wantDegraded  bool
		errorContains string
	}{
		{
			name:    "reachable",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			timeout: 5 * time.Second,
		},
		{
			name:    "not found still reachable",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			timeout: 5 * time.Second,
		},
		{
			name:          "server error",
			handler:       func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			timeout:       5 * time.Second,
			wantErr:       true,
			wantDegraded:  true,
			errorContains: "unhealthy status: 500",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			},
			timeout:       20 * time.Millisecond,
			wantErr:       true,
			wantDegraded:  true,
			errorContains: "request failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			err := TargetCheck(server.URL, tt.timeout, true)(context.Background())
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("expected error containing %q, got %q", tt.errorContains, err.Error())
			}
			var degraded *degradedError
			if errors.As(err, &degraded) != tt.wantDegraded {
				t.Errorf("degraded = %v, want %v", !tt.wantDegraded, tt.wantDegraded)
			}
		})
	}
}

func TestTargetCheck_SelfSigned(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	if err := TargetCheck(server.URL, time.Second, false)(context.Background()); err != nil {
		t.Errorf("unverified check failed: %v", err)
	}
	if err := TargetCheck(server.URL, time.Second, true)(context.Background()); err == nil {
		t.Error("verified check should fail on a self-signed certificate")
	}
}

func TestTargetCheck_InvalidURL(t *testing.T) {
	err := TargetCheck("://invalid-url", time.Second, true)(context.Background())
	if err == nil || !strings.Contains(err.Error(), "creating request:") {
		t.Errorf("expected 'creating request:' error, got: %v", err)
	}
}

func TestCustomCheck(t *testing.T) {
	if err := CustomCheck(func() error { return nil })(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := CustomCheck(func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})(ctx)
	if err == nil || !strings.Contains(err.Error(), "check timeout") {
		t.Errorf("expected timeout error, got %v", err)
	}
}
