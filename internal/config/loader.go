package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"devstack/pkg/errors"
	"github.com/drone/envsubst"
	"gopkg.in/yaml.v3"
)

// Loader loads configuration from file
type Loader struct {
	path       string
	envEnabled bool
}

// NewLoader creates a config loader. An empty path loads the embedded
// defaults only.
func NewLoader(path string) *Loader {
	return &Loader{
		path:       path,
		envEnabled: true,
	}
}

// WithEnvVars enables or disables environment variable loading
func (l *Loader) WithEnvVars(enabled bool) *Loader {
	l.envEnabled = enabled
	return l
}

// Path returns the configuration file path
func (l *Loader) Path() string {
	return l.path
}

// Load loads the configuration. ${VAR} references in the file are expanded
// from the environment, the file is layered over the embedded defaults and
// DEVSTACK_* variables are applied last.
func (l *Loader) Load() (*Config, error) {
	cfg, err := LoadDefault()
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeInternal, "failed to parse default config").WithCause(err)
	}

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, errors.NewError(errors.ErrorTypeConfig, "failed to read config file").
				WithCause(err).
				WithDetail("path", l.path)
		}
		expanded, err := envsubst.Eval(string(data), os.Getenv)
		if err != nil {
			return nil, errors.NewError(errors.ErrorTypeConfig, "failed to expand config").
				WithCause(err).
				WithDetail("path", l.path)
		}
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.NewError(errors.ErrorTypeConfig, "failed to parse config").
				WithCause(err).
				WithDetail("path", l.path)
		}
	}

	if l.envEnabled {
		if err := LoadEnv(cfg); err != nil {
			return nil, errors.NewError(errors.ErrorTypeConfig, "failed to load env vars").WithCause(err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfig, "invalid configuration").WithCause(err)
	}

	return cfg, nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if p := cfg.Proxy.HTTP.Port; p <= 0 || p > 65535 {
		return fmt.Errorf("invalid proxy HTTP port: %d", p)
	}
	if tls := cfg.Proxy.HTTP.TLS; tls != nil && tls.Enabled && (tls.CertFile == "" || tls.KeyFile == "") {
		return fmt.Errorf("proxy TLS requires certFile and keyFile")
	}

	if cfg.Repositories.InternalMirror != "" {
		if err := validateOrigin(cfg.Repositories.InternalMirror); err != nil {
			return fmt.Errorf("repositories.internalMirror: %w", err)
		}
	}

	if cfg.Settings.PropertiesFile == "" {
		return fmt.Errorf("settings.propertiesFile is required")
	}

	if cfg.Proxy.Fallback != "" {
		if err := validateOrigin(cfg.Proxy.Fallback); err != nil {
			return fmt.Errorf("proxy.fallback: %w", err)
		}
	}

	if len(cfg.Proxy.Routes) == 0 {
		return fmt.Errorf("at least one proxy route is required")
	}

	seen := make(map[string]bool, len(cfg.Proxy.Routes))
	for i, route := range cfg.Proxy.Routes {
		if route.Path == "" || !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("proxy route %d: path must start with /", i)
		}
		if seen[route.Path] {
			return fmt.Errorf("proxy route %d: duplicate path %s", i, route.Path)
		}
		seen[route.Path] = true

		if err := validateOrigin(route.Target); err != nil {
			return fmt.Errorf("proxy route %s: target: %w", route.Path, err)
		}
		for pattern := range route.PathRewrite {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("proxy route %s: pathRewrite %q: %w", route.Path, pattern, err)
			}
		}
	}

	for _, p := range []string{cfg.Proxy.Metrics.Path, cfg.Proxy.Health.Path} {
		if p != "" && !strings.HasPrefix(p, "/") {
			return fmt.Errorf("endpoint path %q must start with /", p)
		}
	}

	return nil
}

func validateOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
