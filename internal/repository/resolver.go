package repository

// Resolver produces repository lists for a fixed ResolverConfig.
type Resolver struct {
	config ResolverConfig
}

// NewResolver creates a resolver bound to cfg.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{config: cfg}
}

// Config returns the configuration the resolver was built with.
func (r *Resolver) Config() ResolverConfig {
	return r.config
}

// Resolve returns the endpoints for c in lookup priority order: mirror
// endpoints first when enabled, then the canonical endpoints. The canonical
// endpoints are always present and always last. An unknown context yields nil.
func (r *Resolver) Resolve(c Context) []Endpoint {
	return Resolve(r.config, c)
}

// Resolve is the stateless form of Resolver.Resolve.
func Resolve(cfg ResolverConfig, c Context) []Endpoint {
	p, ok := profiles[c]
	if !ok {
		return nil
	}

	endpoints := make([]Endpoint, 0, 1+len(p.publicMirrors)+len(p.canonical))
	if cfg.MirrorsEnabled {
		endpoints = append(endpoints, InternalMirror(cfg.InternalMirrorURL))
		endpoints = append(endpoints, p.publicMirrors...)
	}
	return append(endpoints, p.canonical...)
}

// ResolveAll resolves every context.
func (r *Resolver) ResolveAll() map[Context][]Endpoint {
	out := make(map[Context][]Endpoint, len(profiles))
	for _, c := range Contexts() {
		out[c] = r.Resolve(c)
	}
	return out
}
