package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"devstack/internal/config"
	"devstack/pkg/metrics"
	"devstack/pkg/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type seen struct {
	mu      sync.Mutex
	path    string
	rawPath string
	query   string
	host    string
	headers http.Header
	body    string
}

func (s *seen) get() seen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seen{path: s.path, rawPath: s.rawPath, query: s.query, host: s.host, headers: s.headers, body: s.body}
}

func recordingUpstream(t *testing.T, tlsServer bool) (*httptest.Server, *seen) {
	t.Helper()
	rec := &seen{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.path = r.URL.Path
		rec.rawPath = r.URL.EscapedPath()
		rec.query = r.URL.RawQuery
		rec.host = r.Host
		rec.headers = r.Header.Clone()
		rec.body = string(body)
		rec.mu.Unlock()

		w.Header().Set("X-Upstream", "yes")
		w.Header().Set("Keep-Alive", "timeout=5")
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "upstream:"+r.URL.Path)
	})

	var srv *httptest.Server
	if tlsServer {
		srv = httptest.NewTLSServer(handler)
	} else {
		srv = httptest.NewServer(handler)
	}
	t.Cleanup(srv.Close)
	return srv, rec
}

func proxyConfig(target string) config.Proxy {
	return config.Proxy{
		Timeout: 5,
		Routes: []config.Route{{
			Path:         "/api/*",
			Target:       target,
			PathRewrite:  map[string]string{"^/api": ""},
			ChangeOrigin: true,
		}},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProxy(t *testing.T, cfg config.Proxy) (*Proxy, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	p, err := New(cfg, nil, WithMetrics(m), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, m
}

func TestProxy_StripsAPIPrefix(t *testing.T) {
	upstream, rec := recordingUpstream(t, false)
	p, _ := newTestProxy(t, proxyConfig(upstream.URL))

	suffixes := []string{"/users", "/users/42", "/orders/7/lines", "/"}
	for _, suffix := range suffixes {
		t.Run(suffix, func(t *testing.T) {
			w := httptest.NewRecorder()
			p.ServeHTTP(w, httptest.NewRequest("GET", "/api"+suffix, nil))

			if w.Code != http.StatusTeapot {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusTeapot)
			}
			if got := rec.get().path; got != suffix {
				t.Errorf("upstream path = %q, want %q", got, suffix)
			}
			if got := w.Body.String(); got != "upstream:"+suffix {
				t.Errorf("body = %q", got)
			}
		})
	}
}

func TestProxy_KeepsEncodedPath(t *testing.T) {
	upstream, rec := recordingUpstream(t, false)
	p, _ := newTestProxy(t, proxyConfig(upstream.URL))

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest("GET", "/api/files/a%2Fb?rev=3", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	got := rec.get()
	if got.rawPath != "/files/a%2Fb" {
		t.Errorf("upstream escaped path = %q, want /files/a%%2Fb", got.rawPath)
	}
	if got.query != "rev=3" {
		t.Errorf("upstream query = %q", got.query)
	}
}

func TestProxy_Headers(t *testing.T) {
	upstream, rec := recordingUpstream(t, false)
	target, _ := url.Parse(upstream.URL)

	tests := []struct {
		name         string
		changeOrigin bool
		wantHost     string
	}{
		{"change origin", true, target.Host},
		{"keep origin", false, "app.test:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := proxyConfig(upstream.URL)
			cfg.Routes[0].ChangeOrigin = tt.changeOrigin
			p, _ := newTestProxy(t, cfg)

			req := httptest.NewRequest("GET", "http://app.test:8080/api/users?active=1", nil)
			req.RemoteAddr = "10.0.0.5:41234"
			req.Header.Set("Connection", "X-Drop-Me")
			req.Header.Set("X-Drop-Me", "1")
			req.Header.Set("Proxy-Authorization", "Basic abc")
			req.Header.Set("Authorization", "Bearer token")
			req = req.WithContext(requestid.NewContext(req.Context(), "req-1"))

			w := httptest.NewRecorder()
			p.ServeHTTP(w, req)

			got := rec.get()
			if got.host != tt.wantHost {
				t.Errorf("upstream Host = %q, want %q", got.host, tt.wantHost)
			}
			if got.query != "active=1" {
				t.Errorf("upstream query = %q", got.query)
			}
			if got.headers.Get("X-Drop-Me") != "" || got.headers.Get("Proxy-Authorization") != "" {
				t.Error("hop-by-hop headers were forwarded")
			}
			if got.headers.Get("Authorization") != "Bearer token" {
				t.Error("end-to-end header was dropped")
			}
			if got.headers.Get("X-Forwarded-For") != "10.0.0.5" {
				t.Errorf("X-Forwarded-For = %q", got.headers.Get("X-Forwarded-For"))
			}
			if got.headers.Get("X-Forwarded-Host") != "app.test:8080" {
				t.Errorf("X-Forwarded-Host = %q", got.headers.Get("X-Forwarded-Host"))
			}
			if got.headers.Get("X-Forwarded-Proto") != "http" {
				t.Errorf("X-Forwarded-Proto = %q", got.headers.Get("X-Forwarded-Proto"))
			}
			if got.headers.Get(requestid.Header) != "req-1" {
				t.Errorf("request id = %q", got.headers.Get(requestid.Header))
			}

			if w.Header().Get("X-Upstream") != "yes" {
				t.Error("response header was dropped")
			}
			if w.Header().Get("Keep-Alive") != "" {
				t.Error("hop-by-hop response header was forwarded")
			}
		})
	}
}

func TestProxy_ForwardsBody(t *testing.T) {
	upstream, rec := recordingUpstream(t, false)
	p, _ := newTestProxy(t, proxyConfig(upstream.URL))

	req := httptest.NewRequest("POST", "/api/attendance", strings.NewReader(`{"status":"present"}`))
	req.Header.Set("Content-Type", "application/json")
	p.ServeHTTP(httptest.NewRecorder(), req)

	got := rec.get()
	if got.body != `{"status":"present"}` {
		t.Errorf("upstream body = %q", got.body)
	}
	if got.headers.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", got.headers.Get("Content-Type"))
	}
}

func TestProxy_TLSVerification(t *testing.T) {
	upstream, _ := recordingUpstream(t, true)

	tests := []struct {
		name   string
		secure bool
		want   int
	}{
		{"secure false skips verification", false, http.StatusTeapot},
		{"secure true rejects self-signed", true, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := proxyConfig(upstream.URL)
			cfg.Routes[0].Secure = tt.secure
			p, _ := newTestProxy(t, cfg)

			w := httptest.NewRecorder()
			p.ServeHTTP(w, httptest.NewRequest("GET", "/api/users", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestProxy_UpstreamUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	p, m := newTestProxy(t, proxyConfig(target))

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest("GET", "/api/users", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/*", "GET", "502")); got != 1 {
		t.Errorf("requests counter = %f, want 1", got)
	}
	if got := testutil.CollectAndCount(m.UpstreamErrors); got != 1 {
		t.Errorf("upstream error series = %d, want 1", got)
	}
}

func TestForwarder_Timeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	route, err := Compile(proxyConfig(upstream.URL).Routes[0], time.Second)
	if err != nil {
		t.Fatal(err)
	}
	route.Timeout = 50 * time.Millisecond

	f := NewForwarder(quietLogger(), nil, nil)
	w := httptest.NewRecorder()
	f.Handler(route).ServeHTTP(w, httptest.NewRequest("GET", "/api/slow", nil))

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}

func TestProxy_UnmatchedPath(t *testing.T) {
	upstream, _ := recordingUpstream(t, false)
	p, _ := newTestProxy(t, proxyConfig(upstream.URL))

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest("GET", "/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestProxy_Fallback(t *testing.T) {
	api, apiSeen := recordingUpstream(t, false)
	web, webSeen := recordingUpstream(t, false)

	cfg := proxyConfig(api.URL)
	cfg.Fallback = web.URL
	p, _ := newTestProxy(t, cfg)

	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/main.dart.js", nil))
	if got := webSeen.get().path; got != "/main.dart.js" {
		t.Errorf("fallback path = %q", got)
	}

	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/users", nil))
	if got := apiSeen.get().path; got != "/users" {
		t.Errorf("api path = %q", got)
	}
	if len(p.Routes()) != 2 {
		t.Errorf("expected 2 routes, got %d", len(p.Routes()))
	}
}

func TestProxy_Update(t *testing.T) {
	first, firstSeen := recordingUpstream(t, false)
	second, secondSeen := recordingUpstream(t, false)

	p, m := newTestProxy(t, proxyConfig(first.URL))
	if got := testutil.ToFloat64(m.RoutesConfigured); got != 1 {
		t.Errorf("routes gauge = %f, want 1", got)
	}

	next := proxyConfig(second.URL)
	next.Routes = append(next.Routes, config.Route{Path: "/auth/*", Target: second.URL})
	if err := p.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	p.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/users", nil))
	if secondSeen.get().path != "/users" {
		t.Error("request did not reach the new target")
	}
	if firstSeen.get().path != "" {
		t.Error("request reached the old target")
	}
	if got := testutil.ToFloat64(m.RoutesConfigured); got != 2 {
		t.Errorf("routes gauge = %f, want 2", got)
	}

	bad := proxyConfig("not a url")
	if err := p.Update(bad); err == nil {
		t.Fatal("Update() should fail for an invalid target")
	}
	if len(p.Routes()) != 2 {
		t.Error("failed update replaced the route table")
	}
	if got := testutil.ToFloat64(m.RouteReloads.WithLabelValues("failure")); got != 1 {
		t.Errorf("failed reloads = %f, want 1", got)
	}
	if got := testutil.ToFloat64(m.RouteReloads.WithLabelValues("success")); got != 1 {
		t.Errorf("successful reloads = %f, want 1", got)
	}
}

func TestNew_ConflictingRoutes(t *testing.T) {
	cfg := proxyConfig("http://localhost:8001")
	cfg.Routes = append(cfg.Routes, config.Route{Path: "/api/*", Target: "http://localhost:8002"})
	if _, err := New(cfg, nil, WithLogger(quietLogger())); err == nil {
		t.Error("New() should reject conflicting routes")
	}
}
