package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"devstack/pkg/metrics"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check represents a health check function
type Check func(ctx context.Context) error

// degradedError marks a failure that does not make the whole service
// unhealthy
type degradedError struct{ err error }

func (e *degradedError) Error() string { return e.err.Error() }
func (e *degradedError) Unwrap() error { return e.err }

// Degraded wraps err so the failing check reports StatusDegraded
func Degraded(err error) error {
	if err == nil {
		return nil
	}
	return &degradedError{err: err}
}

// Checker manages health checks
type Checker struct {
	checks  map[string]Check
	mu      sync.RWMutex
	metrics *metrics.Metrics
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
	}
}

// WithMetrics records check durations and status
func (c *Checker) WithMetrics(m *metrics.Metrics) *Checker {
	c.metrics = m
	return c
}

// RegisterCheck registers a health check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// ReplaceChecks swaps the full set of checks
func (c *Checker) ReplaceChecks(checks map[string]Check) {
	next := make(map[string]Check, len(checks))
	for name, check := range checks {
		next[name] = check
	}
	c.mu.Lock()
	c.checks = next
	c.mu.Unlock()
}

// CheckHealth runs all health checks concurrently
func (c *Checker) CheckHealth(ctx context.Context) map[string]CheckResult {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var wg sync.WaitGroup
	var resultsMu sync.Mutex

	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			err := check(ctx)
			duration := time.Since(start)

			result := CheckResult{Status: StatusHealthy, Duration: duration}
			var degraded *degradedError
			switch {
			case errors.As(err, &degraded):
				result.Status = StatusDegraded
				result.Error = err.Error()
			case err != nil:
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}

			if c.metrics != nil {
				c.metrics.HealthCheckDuration.WithLabelValues(name).Observe(duration.Seconds())
				healthy := 0.0
				if result.Status == StatusHealthy {
					healthy = 1
				}
				c.metrics.HealthCheckStatus.WithLabelValues(name).Set(healthy)
			}

			resultsMu.Lock()
			results[name] = result
			resultsMu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

// Overall folds check results into one status
func Overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// Handler serves health endpoints
type Handler struct {
	checker *Checker
	version string
	timeout time.Duration
}

// NewHandler creates a new health handler. A zero timeout means 5s.
func NewHandler(checker *Checker, version string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handler{
		checker: checker,
		version: version,
		timeout: timeout,
	}
}

// Health runs every check. Only an unhealthy result turns the response
// into a 503; degraded upstreams still answer 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := h.checker.CheckHealth(ctx)
	status := Overall(results)

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    results,
		Version:   h.version,
	}

	statusCode := http.StatusOK
	if status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// Live reports that the process is serving
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}
