// Package repository resolves the ordered Maven repository lists Gradle
// consults for application dependencies and for build-tool plugins.
package repository

import (
	"fmt"
	"strings"
)

// Kind identifies what a repository endpoint serves.
type Kind string

const (
	KindGoogle       Kind = "GOOGLE"
	KindCentral      Kind = "CENTRAL"
	KindPluginPortal Kind = "PLUGIN_PORTAL"
	KindCustomMirror Kind = "CUSTOM_MIRROR"
)

// MetadataPolicy declares which artifact descriptors an endpoint may serve.
type MetadataPolicy string

const (
	// MetadataPOMAndArtifact trusts both the Maven POM and the bare artifact.
	MetadataPOMAndArtifact MetadataPolicy = "POM_AND_ARTIFACT"
)

// Endpoint is one Maven repository location. Values are immutable once the
// catalog is built; callers receive copies.
type Endpoint struct {
	Name           string         `json:"name" yaml:"name"`
	URL            string         `json:"url" yaml:"url"`
	Kind           Kind           `json:"kind" yaml:"kind"`
	MetadataPolicy MetadataPolicy `json:"metadataPolicy" yaml:"metadataPolicy"`
}

// IsMirror reports whether the endpoint is an alternate location rather than
// a canonical index.
func (e Endpoint) IsMirror() bool {
	return e.Kind == KindCustomMirror
}

// Context selects which Gradle resolution block a list is built for.
type Context string

const (
	ContextDependencies Context = "dependencies"
	ContextPlugins      Context = "plugins"
)

// Contexts lists every resolution context in a stable order.
func Contexts() []Context {
	return []Context{ContextDependencies, ContextPlugins}
}

// ParseContext parses a context name as given on the command line.
func ParseContext(s string) (Context, error) {
	switch Context(strings.ToLower(strings.TrimSpace(s))) {
	case ContextDependencies, "deps":
		return ContextDependencies, nil
	case ContextPlugins:
		return ContextPlugins, nil
	default:
		return "", fmt.Errorf("unknown resolution context %q (want dependencies or plugins)", s)
	}
}
