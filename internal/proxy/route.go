package proxy

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"devstack/internal/config"
)

// Route is a compiled proxy route
type Route struct {
	// Path is the configured pattern, e.g. "/api/*".
	Path         string
	Target       *url.URL
	ChangeOrigin bool
	// Secure enables certificate validation towards https targets.
	Secure  bool
	Timeout time.Duration

	rewrites []rewrite
}

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Compile compiles a configured route. Rewrite rules run in lexical order
// of their patterns.
func Compile(cfg config.Route, defaultTimeout time.Duration) (*Route, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("route %s: invalid target: %w", cfg.Path, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" || target.Host == "" {
		return nil, fmt.Errorf("route %s: target must be an http(s) origin, got %q", cfg.Path, cfg.Target)
	}

	patterns := make([]string, 0, len(cfg.PathRewrite))
	for p := range cfg.PathRewrite {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	rewrites := make([]rewrite, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("route %s: pathRewrite %q: %w", cfg.Path, p, err)
		}
		rewrites = append(rewrites, rewrite{pattern: re, replacement: cfg.PathRewrite[p]})
	}

	return &Route{
		Path:         cfg.Path,
		Target:       target,
		ChangeOrigin: cfg.ChangeOrigin,
		Secure:       cfg.Secure,
		Timeout:      cfg.RequestTimeout(defaultTimeout),
		rewrites:     rewrites,
	}, nil
}

// RewritePath applies the rewrite rules to an incoming path. Each rule
// replaces its first match only. An empty result becomes "/".
func (r *Route) RewritePath(path string) string {
	for _, rw := range r.rewrites {
		loc := rw.pattern.FindStringSubmatchIndex(path)
		if loc == nil {
			continue
		}
		var expanded []byte
		expanded = rw.pattern.ExpandString(expanded, rw.replacement, path, loc)
		path = path[:loc[0]] + string(expanded) + path[loc[1]:]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return path
}

// UpstreamURL maps an incoming request URL to the upstream URL. Rewrites
// run on the escaped path, so encoded characters such as %2F reach the
// upstream unchanged.
func (r *Route) UpstreamURL(in *url.URL) *url.URL {
	out := *r.Target
	out.RawPath = joinPath(r.Target.EscapedPath(), r.RewritePath(in.EscapedPath()))
	if path, err := url.PathUnescape(out.RawPath); err == nil {
		out.Path = path
	} else {
		out.Path = out.RawPath
		out.RawPath = ""
	}
	out.RawQuery = in.RawQuery
	out.Fragment = ""
	return &out
}

func joinPath(base, path string) string {
	if base == "" || base == "/" {
		return path
	}
	return strings.TrimSuffix(base, "/") + path
}
