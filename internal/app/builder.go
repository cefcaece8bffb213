package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"devstack/internal/config"
	"devstack/internal/health"
	"devstack/internal/middleware"
	"devstack/internal/proxy"
	"devstack/internal/telemetry"
	"devstack/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Builder builds the proxy server
type Builder struct {
	config  *config.Config
	logger  *slog.Logger
	version string
}

// NewBuilder creates a new application builder
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		config:  cfg,
		logger:  logger,
		version: "dev",
	}
}

// WithVersion sets the version reported by health and tracing
func (b *Builder) WithVersion(version string) *Builder {
	b.version = version
	return b
}

// Build constructs the server
func (b *Builder) Build() (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry)

	tel, err := telemetry.New(b.config.Telemetry, b.version)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry: %w", err)
	}

	p, err := proxy.New(b.config.Proxy, tel, proxy.WithMetrics(m), proxy.WithLogger(b.logger))
	if err != nil {
		return nil, fmt.Errorf("creating proxy: %w", err)
	}

	checker := health.NewChecker().WithMetrics(m)
	checker.ReplaceChecks(routeChecks(b.config.Proxy))

	mux := http.NewServeMux()
	healthCfg := b.config.Proxy.Health
	healthHandler := health.NewHandler(checker, b.version, seconds(healthCfg.Timeout))
	if healthCfg.Path != "" {
		mux.HandleFunc("GET "+healthCfg.Path, healthHandler.Health)
		mux.HandleFunc("GET "+healthCfg.Path+"/live", healthHandler.Live)
		b.logger.Info("health checks enabled", "path", healthCfg.Path)
	}
	if mc := b.config.Proxy.Metrics; mc.Enabled && mc.Path != "" {
		mux.Handle("GET "+mc.Path, metrics.Handler(registry))
		b.logger.Info("metrics enabled", "path", mc.Path)
	}
	mux.Handle("/", p)

	handler := middleware.Chain(
		middleware.Recovery(b.logger),
		middleware.RequestID(),
		tel.WrapHTTP,
		middleware.Logging(b.logger.With("component", "access")),
	)(mux)

	return &Server{
		config:    b.config,
		logger:    b.logger.With("component", "server"),
		proxy:     p,
		checker:   checker,
		telemetry: tel,
		handler:   handler,
	}, nil
}

// routeChecks builds one reachability check per route target, each bounded
// by proxy.health.timeout.
func routeChecks(cfg config.Proxy) map[string]health.Check {
	timeout := seconds(cfg.Health.Timeout)
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	checks := make(map[string]health.Check, len(cfg.Routes)+1)
	for _, route := range cfg.Routes {
		checks["route:"+route.Path] = health.TargetCheck(route.Target, timeout, route.Secure)
	}
	if cfg.Fallback != "" {
		checks["fallback"] = health.TargetCheck(cfg.Fallback, timeout, false)
	}
	return checks
}
