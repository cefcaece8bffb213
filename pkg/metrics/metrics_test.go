package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	if m.RequestsTotal == nil || m.RequestDuration == nil || m.ActiveRequests == nil {
		t.Fatal("proxy metrics not created")
	}
	if m.UpstreamErrors == nil || m.UpstreamRequestDuration == nil {
		t.Fatal("upstream metrics not created")
	}
	if m.RouteReloads == nil || m.RoutesConfigured == nil {
		t.Fatal("route table metrics not created")
	}
	if m.ProbesTotal == nil || m.ProbeDuration == nil {
		t.Fatal("probe metrics not created")
	}
}

func TestMetricsCollection(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.RequestsTotal.WithLabelValues("/api/*", "GET", "200").Inc()
	m.RequestsTotal.WithLabelValues("/api/*", "GET", "200").Inc()
	m.RequestsTotal.WithLabelValues("/api/*", "POST", "502").Inc()

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/*", "GET", "200")); got != 2 {
		t.Errorf("expected 2 GET requests, got %f", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/*", "POST", "502")); got != 1 {
		t.Errorf("expected 1 POST request, got %f", got)
	}

	m.ActiveRequests.WithLabelValues("/api/*").Inc()
	m.ActiveRequests.WithLabelValues("/api/*").Dec()
	if got := testutil.ToFloat64(m.ActiveRequests.WithLabelValues("/api/*")); got != 0 {
		t.Errorf("expected 0 active requests, got %f", got)
	}

	m.RoutesConfigured.Set(3)
	if got := testutil.ToFloat64(m.RoutesConfigured); got != 3 {
		t.Errorf("expected 3 routes, got %f", got)
	}

	m.ProbesTotal.WithLabelValues("google", ReachabilityLabel(true)).Inc()
	m.ProbesTotal.WithLabelValues("aliyun-central", ReachabilityLabel(false)).Inc()
	if got := testutil.CollectAndCount(m.ProbesTotal); got != 2 {
		t.Errorf("expected 2 probe series, got %d", got)
	}
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	m.RouteReloads.WithLabelValues("success").Inc()

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `devstack_proxy_route_reloads_total{result="success"} 1`) {
		t.Errorf("metrics output missing reload counter:\n%s", body)
	}
}

func TestReachabilityLabel(t *testing.T) {
	if ReachabilityLabel(true) != "reachable" || ReachabilityLabel(false) != "unreachable" {
		t.Error("unexpected reachability labels")
	}
}
