package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for devstack
type Metrics struct {
	// Proxy metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  *prometheus.GaugeVec

	// Upstream metrics
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamErrors          *prometheus.CounterVec

	// Route table metrics
	RouteReloads     *prometheus.CounterVec
	RoutesConfigured prometheus.Gauge

	// Health check metrics
	HealthCheckDuration *prometheus.HistogramVec
	HealthCheckStatus   *prometheus.GaugeVec

	// Mirror probe metrics
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devstack_proxy_requests_total",
				Help: "Total number of proxied HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devstack_proxy_request_duration_seconds",
				Help:    "Proxied request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		ActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "devstack_proxy_requests_active",
				Help: "Number of in-flight proxied requests",
			},
			[]string{"route"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devstack_upstream_request_duration_seconds",
				Help:    "Upstream round trip latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "target"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devstack_upstream_errors_total",
				Help: "Total number of failed upstream round trips",
			},
			[]string{"route", "target", "error_type"},
		),

		RouteReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devstack_proxy_route_reloads_total",
				Help: "Total number of route table reloads",
			},
			[]string{"result"},
		),
		RoutesConfigured: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "devstack_proxy_routes",
				Help: "Number of routes in the active route table",
			},
		),

		HealthCheckDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devstack_health_check_duration_seconds",
				Help:    "Health check durations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"check"},
		),
		HealthCheckStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "devstack_health_check_status",
				Help: "Health check status (1 = healthy, 0 = unhealthy)",
			},
			[]string{"check"},
		),

		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devstack_mirror_probes_total",
				Help: "Total number of repository endpoint probes",
			},
			[]string{"endpoint", "result"},
		),
		ProbeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devstack_mirror_probe_duration_seconds",
				Help:    "Repository endpoint probe latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// ReachabilityLabel returns the result label for a probe or health check
func ReachabilityLabel(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
