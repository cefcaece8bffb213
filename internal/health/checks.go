package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// TargetCheck reports whether an upstream origin answers at all. Any
// response below 500 counts as reachable; failures are degraded since the
// proxy itself keeps serving.
func TargetCheck(target string, timeout time.Duration, verifyTLS bool) Check {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // mirrors the route setting
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return Degraded(fmt.Errorf("request failed: %w", err))
		}
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			return Degraded(fmt.Errorf("unhealthy status: %d", resp.StatusCode))
		}
		return nil
	}
}

// CustomCheck runs checkFunc, giving up when ctx is done
func CustomCheck(checkFunc func() error) Check {
	return func(ctx context.Context) error {
		done := make(chan error, 1)
		go func() {
			done <- checkFunc()
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return fmt.Errorf("check timeout: %w", ctx.Err())
		}
	}
}
