// Package proxy implements the local development proxy. Requests matching
// a route pattern are forwarded to the route's target origin with the
// route's path rewrites applied.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"devstack/internal/config"
	"devstack/internal/telemetry"
	"devstack/pkg/metrics"
	"devstack/pkg/routing"
)

// table is an immutable route table
type table struct {
	mux    *http.ServeMux
	routes []*Route
}

// Proxy serves requests from the current route table. The table is
// replaced atomically on Update, so in-flight requests finish on the
// table they started with.
type Proxy struct {
	table     atomic.Pointer[table]
	forwarder *Forwarder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Proxy
type Option func(*Proxy)

// WithMetrics records request and reload metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Proxy) { p.metrics = m }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) { p.logger = logger }
}

// New creates a proxy serving cfg's routes
func New(cfg config.Proxy, tel *telemetry.Telemetry, opts ...Option) (*Proxy, error) {
	p := &Proxy{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "proxy")
	p.forwarder = NewForwarder(p.logger, p.metrics, tel)

	t, err := p.build(cfg)
	if err != nil {
		return nil, err
	}
	p.install(t)
	return p, nil
}

// Update swaps in the routes of cfg. On error the current table stays
// active.
func (p *Proxy) Update(cfg config.Proxy) error {
	t, err := p.build(cfg)
	if err != nil {
		p.recordReload("failure")
		return err
	}
	p.install(t)
	p.recordReload("success")
	p.logger.Info("route table updated", "routes", len(t.routes))
	return nil
}

// Routes returns the active routes
func (p *Proxy) Routes() []*Route {
	t := p.table.Load()
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// ServeHTTP implements http.Handler
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.table.Load().mux.ServeHTTP(w, r)
}

func (p *Proxy) build(cfg config.Proxy) (*table, error) {
	def := cfg.UpstreamTimeout()
	mux := http.NewServeMux()
	routes := make([]*Route, 0, len(cfg.Routes)+1)

	for _, rc := range cfg.Routes {
		route, err := Compile(rc, def)
		if err != nil {
			return nil, err
		}
		if err := routing.Handle(mux, route.Path, p.forwarder.Handler(route)); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	if cfg.Fallback != "" {
		route, err := Compile(config.Route{
			Path:         "/",
			Target:       cfg.Fallback,
			ChangeOrigin: true,
		}, def)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		if err := routing.Handle(mux, "/", p.forwarder.Handler(route)); err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		routes = append(routes, route)
	}

	return &table{mux: mux, routes: routes}, nil
}

func (p *Proxy) install(t *table) {
	p.table.Store(t)
	if p.metrics != nil {
		p.metrics.RoutesConfigured.Set(float64(len(t.routes)))
	}
}

func (p *Proxy) recordReload(result string) {
	if p.metrics != nil {
		p.metrics.RouteReloads.WithLabelValues(result).Inc()
	}
}
