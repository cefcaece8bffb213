// Package app wires the development proxy server: route table, health,
// metrics, tracing and configuration hot reload.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"devstack/internal/config"
	"devstack/internal/health"
	"devstack/internal/proxy"
	"devstack/internal/telemetry"
	devtls "devstack/pkg/tls"
)

// Server is the development proxy server
type Server struct {
	config    *config.Config
	logger    *slog.Logger
	proxy     *proxy.Proxy
	checker   *health.Checker
	telemetry *telemetry.Telemetry
	handler   http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	watcher    *config.Watcher
	done       chan error
}

// NewServer creates a new proxy server
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	return NewBuilder(cfg, logger).Build()
}

// Handler returns the server's root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background. It returns once
// the listener is bound, so Addr is valid afterwards.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("server already started")
	}

	httpCfg := s.config.Proxy.HTTP
	ln, err := net.Listen("tcp", httpCfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", httpCfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  seconds(httpCfg.ReadTimeout),
		WriteTimeout: seconds(httpCfg.WriteTimeout),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	useTLS := httpCfg.TLS != nil && httpCfg.TLS.Enabled
	if useTLS {
		tlsConfig, err := devtls.ServerConfig(httpCfg.TLS.CertFile, httpCfg.TLS.KeyFile, httpCfg.TLS.MinVersion)
		if err != nil {
			ln.Close()
			return err
		}
		srv.TLSConfig = tlsConfig
	}

	s.httpServer = srv
	s.listener = ln
	s.done = make(chan error, 1)

	go func() {
		var err error
		if useTLS {
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	s.logger.Info("proxy listening",
		"addr", ln.Addr().String(),
		"tls", useTLS,
		"routes", len(s.proxy.Routes()),
	)
	for _, route := range s.proxy.Routes() {
		s.logger.Info("route",
			"path", route.Path,
			"target", route.Target.String(),
			"changeOrigin", route.ChangeOrigin,
			"secure", route.Secure,
		)
	}
	return nil
}

// Addr returns the bound listen address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done reports the serve loop's exit. It is nil before Start.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Reload applies the proxy section of cfg. Listener settings need a
// restart and are ignored.
func (s *Server) Reload(cfg *config.Config) error {
	if err := s.proxy.Update(cfg.Proxy); err != nil {
		return fmt.Errorf("reloading routes: %w", err)
	}
	s.checker.ReplaceChecks(routeChecks(cfg.Proxy))
	return nil
}

// Watch reloads the route table whenever the config file changes
func (s *Server) Watch(path string) error {
	wcfg := config.DefaultWatcherConfig()
	wcfg.OnChange = s.Reload
	wcfg.OnError = func(err error) {
		s.logger.Warn("keeping current routes", "error", err)
	}

	w, err := config.NewWatcher(path, wcfg, s.logger)
	if err != nil {
		return err
	}
	w.Start()

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, w := s.httpServer, s.watcher
	s.mu.Unlock()

	var errs []error
	if w != nil {
		if err := w.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping watcher: %w", err))
		}
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping HTTP server: %w", err))
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stopping telemetry: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("proxy stopped")
	return nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
