package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devstack/internal/telemetry"
	apperrors "devstack/pkg/errors"
	"devstack/pkg/metrics"
	"devstack/pkg/requestid"
)

// hopByHopHeaders are stripped in both directions
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder sends requests to route targets
type Forwarder struct {
	client         *http.Client
	insecureClient *http.Client
	logger         *slog.Logger
	metrics        *metrics.Metrics
	telemetry      *telemetry.Telemetry
}

// NewForwarder creates a forwarder. Routes with secure=false use a client
// that skips upstream certificate validation.
func NewForwarder(logger *slog.Logger, m *metrics.Metrics, tel *telemetry.Telemetry) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		client:         newClient(false),
		insecureClient: newClient(true),
		logger:         logger.With("component", "forwarder"),
		metrics:        m,
		telemetry:      tel,
	}
}

func newClient(insecureSkipVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // secure: false routes
	}
	return &http.Client{
		Transport: transport,
		// Redirects are passed back to the caller untouched.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Handler returns an http.Handler forwarding to route
func (f *Forwarder) Handler(route *Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if f.metrics != nil {
			active := f.metrics.ActiveRequests.WithLabelValues(route.Path)
			active.Inc()
			defer active.Dec()
		}

		status, err := f.Forward(w, r, route)
		if err != nil {
			status = f.handleError(w, r, route, err)
		}

		if f.metrics != nil {
			f.metrics.RequestsTotal.WithLabelValues(route.Path, r.Method, statusLabel(status)).Inc()
			f.metrics.RequestDuration.WithLabelValues(route.Path, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Forward proxies r to the route target and streams the response to w.
// It returns the upstream status, or an error if no response was written.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, route *Route) (int, error) {
	ctx, cancel := context.WithTimeout(r.Context(), route.Timeout)
	defer cancel()

	upstream := route.UpstreamURL(r.URL)

	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, upstream.String(), body)
	if err != nil {
		return 0, apperrors.NewError(apperrors.ErrorTypeBadRequest, "failed to create upstream request").WithCause(err)
	}
	req.ContentLength = r.ContentLength

	copyHeaders(req.Header, r.Header)
	setForwardedHeaders(req, r)
	if id := requestid.FromContext(r.Context()); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	if route.ChangeOrigin {
		req.Host = route.Target.Host
	} else {
		req.Host = r.Host
	}

	client := f.client
	if !route.Secure {
		client = f.insecureClient
	}

	callStart := time.Now()
	resp, err := f.do(ctx, client, req, route)
	if f.metrics != nil {
		f.metrics.UpstreamRequestDuration.WithLabelValues(route.Path, route.Target.Host).Observe(time.Since(callStart).Seconds())
	}
	if err != nil {
		return 0, classify(ctx, err)
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(flushWriter{w: w, rc: http.NewResponseController(w)}, resp.Body); err != nil {
		// Headers are already sent.
		f.logger.Warn("failed to copy response body",
			"route", route.Path,
			"request_id", requestid.FromContext(r.Context()),
			"error", err)
	}
	return resp.StatusCode, nil
}

func (f *Forwarder) do(ctx context.Context, client *http.Client, req *http.Request, route *Route) (*http.Response, error) {
	if f.telemetry == nil {
		return client.Do(req)
	}
	_, span := f.telemetry.StartHTTPClientSpan(ctx, req, route.Path)
	resp, err := client.Do(req)
	telemetry.EndHTTPClientSpan(span, resp, err)
	return resp, err
}

// handleError maps a forwarding error to an HTTP response
func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, route *Route, err error) int {
	if errors.Is(r.Context().Err(), context.Canceled) {
		f.logger.Debug("client canceled request", "route", route.Path, "path", r.URL.Path)
		return 499
	}

	statusCode := http.StatusBadGateway
	message := "Bad Gateway"
	errType := apperrors.ErrorTypeUnavailable

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		statusCode = appErr.HTTPStatusCode()
		message = appErr.Message
		errType = appErr.Type
	}

	f.logger.Error("proxy request failed",
		"route", route.Path,
		"target", route.Target.String(),
		"path", r.URL.Path,
		"request_id", requestid.FromContext(r.Context()),
		"type", errType,
		"error", err)

	if f.metrics != nil {
		f.metrics.UpstreamErrors.WithLabelValues(route.Path, route.Target.Host, string(errType)).Inc()
	}

	http.Error(w, message, statusCode)
	return statusCode
}

// classify turns a round trip failure into a typed error
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewError(apperrors.ErrorTypeTimeout, "upstream timed out").WithCause(err)
	}
	return apperrors.NewError(apperrors.ErrorTypeUnavailable, "upstream unavailable").WithCause(err)
}

func copyHeaders(dst, src http.Header) {
	connectionTokens := src.Values("Connection")
	for key, values := range src {
		if isHopByHopHeader(key) || listsToken(connectionTokens, key) {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func setForwardedHeaders(req *http.Request, in *http.Request) {
	if ip, _, err := net.SplitHostPort(in.RemoteAddr); err == nil {
		if prior := in.Header.Values("X-Forwarded-For"); len(prior) > 0 {
			ip = strings.Join(prior, ", ") + ", " + ip
		}
		req.Header.Set("X-Forwarded-For", ip)
	}
	proto := "http"
	if in.TLS != nil {
		proto = "https"
	}
	req.Header.Set("X-Forwarded-Proto", proto)
	req.Header.Set("X-Forwarded-Host", in.Host)
}

func isHopByHopHeader(header string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(h, header) {
			return true
		}
	}
	return false
}

func listsToken(values []string, header string) bool {
	for _, v := range values {
		for _, token := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(token), header) {
				return true
			}
		}
	}
	return false
}

func statusLabel(code int) string {
	return strconv.Itoa(code)
}

// flushWriter flushes after every write so streamed responses reach the
// client as they arrive.
type flushWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil {
		_ = fw.rc.Flush()
	}
	return n, err
}
