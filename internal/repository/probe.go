package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// ProbeConfig controls the reachability probe.
type ProbeConfig struct {
	// Timeout bounds each individual request.
	Timeout time.Duration
	// Attempts is the maximum number of tries per endpoint.
	Attempts int
	// Concurrency bounds the number of endpoints probed at once.
	Concurrency int
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration
}

// DefaultProbeConfig returns default probe configuration
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Timeout:         5 * time.Second,
		Attempts:        3,
		Concurrency:     4,
		InitialInterval: 200 * time.Millisecond,
	}
}

// ProbeResult is the outcome for one endpoint.
type ProbeResult struct {
	Endpoint   Endpoint      `json:"endpoint" yaml:"endpoint"`
	Reachable  bool          `json:"reachable" yaml:"reachable"`
	StatusCode int           `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Attempts   int           `json:"attempts" yaml:"attempts"`
	Latency    time.Duration `json:"latency" yaml:"latency"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProbeObserver receives every finished probe, e.g. for metrics.
type ProbeObserver func(ProbeResult)

// Prober checks that repository endpoints answer HTTP requests. It is a
// diagnostic and never changes resolution order.
type Prober struct {
	client   *http.Client
	config   ProbeConfig
	logger   *slog.Logger
	observer ProbeObserver
}

// NewProber creates a prober. A nil client uses http.DefaultClient.
func NewProber(client *http.Client, cfg ProbeConfig, logger *slog.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultProbeConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	return &Prober{
		client: client,
		config: cfg,
		logger: logger.With("component", "repository-probe"),
	}
}

// WithObserver registers a callback for finished probes.
func (p *Prober) WithObserver(fn ProbeObserver) *Prober {
	p.observer = fn
	return p
}

// Probe checks every endpoint concurrently and returns results in the order
// of endpoints. Only context cancellation is returned as an error;
// unreachable endpoints are reported in the results.
func (p *Prober) Probe(ctx context.Context, endpoints []Endpoint) ([]ProbeResult, error) {
	results := make([]ProbeResult, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)

	for i, e := range endpoints {
		g.Go(func() error {
			results[i] = p.probeOne(gctx, e)
			if p.observer != nil {
				p.observer(results[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Prober) probeOne(ctx context.Context, e Endpoint) ProbeResult {
	result := ProbeResult{Endpoint: e}
	start := time.Now()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.config.InitialInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.config.Attempts-1)), ctx)

	err := backoff.Retry(func() error {
		result.Attempts++
		status, err := p.head(ctx, e.URL)
		result.StatusCode = status
		if err != nil {
			p.logger.Debug("probe attempt failed", "endpoint", e.Name, "attempt", result.Attempts, "error", err)
			return err
		}
		// Repository roots often refuse listings; any non-5xx answer means
		// the server is there.
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("server error: %d", status)
		}
		return nil
	}, bo)

	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		p.logger.Warn("endpoint unreachable", "endpoint", e.Name, "url", e.URL, "error", err)
		return result
	}
	result.Reachable = true
	return result
}

func (p *Prober) head(ctx context.Context, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
