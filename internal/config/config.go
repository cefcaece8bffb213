package config

import (
	"time"
)

// Config holds devstack configuration
type Config struct {
	Repositories Repositories `yaml:"repositories"`
	Settings     Settings     `yaml:"settings"`
	Layout       Layout       `yaml:"layout"`
	Proxy        Proxy        `yaml:"proxy"`
	Telemetry    Telemetry    `yaml:"telemetry"`
}

// Repositories configures repository resolution. The mirror toggle itself
// is read from USE_LOCAL_MAVEN_MIRRORS, not from this file.
type Repositories struct {
	InternalMirror string `yaml:"internalMirror"`
	Probe          Probe  `yaml:"probe"`
}

// Probe configures the mirror reachability check
type Probe struct {
	Timeout     int `yaml:"timeout"` // seconds
	Attempts    int `yaml:"attempts"`
	Concurrency int `yaml:"concurrency"`
}

// Settings locates the machine-local properties file
type Settings struct {
	PropertiesFile string `yaml:"propertiesFile"`
}

// Layout configures build-output relocation
type Layout struct {
	AndroidDir string `yaml:"androidDir"`
	BuildDir   string `yaml:"buildDir"`
}

// Proxy configures the development proxy
type Proxy struct {
	HTTP     HTTP    `yaml:"http"`
	Timeout  int     `yaml:"timeout"` // seconds
	Fallback string  `yaml:"fallback,omitempty"`
	Routes   []Route `yaml:"routes"`
	Metrics  Metrics `yaml:"metrics"`
	Health   Health  `yaml:"health"`
}

// HTTP configuration
type HTTP struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	TLS          *TLS   `yaml:"tls,omitempty"`
}

// TLS configuration
type TLS struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"certFile"`
	KeyFile    string `yaml:"keyFile"`
	MinVersion string `yaml:"minVersion,omitempty"`
}

// Route maps a path pattern to an upstream origin
type Route struct {
	Path         string            `yaml:"path"`
	Target       string            `yaml:"target"`
	PathRewrite  map[string]string `yaml:"pathRewrite,omitempty"`
	ChangeOrigin bool              `yaml:"changeOrigin"`
	// Secure enables certificate validation for https targets.
	Secure  bool `yaml:"secure"`
	Timeout int  `yaml:"timeout,omitempty"` // seconds
}

// Metrics configuration
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Health configuration
type Health struct {
	Path    string `yaml:"path"`
	Timeout int    `yaml:"timeout"` // seconds
}

// Telemetry configuration
type Telemetry struct {
	Enabled bool    `yaml:"enabled"`
	Service string  `yaml:"service"`
	Tracing Tracing `yaml:"tracing"`
}

// Tracing configuration
type Tracing struct {
	Endpoint   string            `yaml:"endpoint"`
	Insecure   bool              `yaml:"insecure"`
	Headers    map[string]string `yaml:"headers,omitempty"`
	SampleRate float64           `yaml:"sampleRate"`
}

// Addr returns the listen address
func (h HTTP) Addr() string {
	return joinHostPort(h.Host, h.Port)
}

// UpstreamTimeout returns the default upstream timeout
func (p Proxy) UpstreamTimeout() time.Duration {
	return seconds(p.Timeout, 30*time.Second)
}

// RequestTimeout returns the route timeout, falling back to def
func (r Route) RequestTimeout(def time.Duration) time.Duration {
	return seconds(r.Timeout, def)
}

// ProbeTimeout returns the per-request probe timeout
func (p Probe) ProbeTimeout() time.Duration {
	return seconds(p.Timeout, 5*time.Second)
}

func seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
