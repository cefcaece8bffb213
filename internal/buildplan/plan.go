// Package buildplan assembles what the Android settings phase needs in the
// order Gradle evaluates it: local.properties first, then plugin and
// repository resolution, then the build-output layout.
package buildplan

import (
	"devstack/internal/layout"
	"devstack/internal/repository"
	"devstack/internal/settings"
)

// Resolver resolves the repository list of one context
type Resolver interface {
	Resolve(c repository.Context) []repository.Endpoint
}

// Plugin is a declared plugin together with its module substitution
type Plugin struct {
	repository.PluginRequest `yaml:",inline"`
	Module                   string `json:"module,omitempty" yaml:"module,omitempty"`
}

// Plan is the evaluated settings phase
type Plan struct {
	Settings      *settings.Settings `json:"settings" yaml:"settings"`
	IncludedBuild string             `json:"includedBuild" yaml:"includedBuild"`
	Plugins       []Plugin           `json:"plugins" yaml:"plugins"`
	Repositories  repository.Listing `json:"repositories" yaml:"repositories"`
	Layout        layout.Layout      `json:"layout" yaml:"layout"`
}

// Build evaluates the settings phase. A settings error is returned before
// any repository is resolved. contexts selects which lists to resolve; none
// means all of them.
func Build(propertiesPath string, resolver Resolver, mirrorsEnabled bool, l layout.Layout, contexts ...repository.Context) (*Plan, error) {
	s, err := settings.Load(propertiesPath)
	if err != nil {
		return nil, err
	}

	if len(contexts) == 0 {
		contexts = repository.Contexts()
	}

	plan := &Plan{
		Settings:      s,
		IncludedBuild: s.IncludedBuild(),
		Repositories:  repository.Listing{MirrorsEnabled: mirrorsEnabled},
		Layout:        l,
	}
	for _, req := range repository.DeclaredPlugins {
		module, _ := repository.PluginModule(req)
		plan.Plugins = append(plan.Plugins, Plugin{PluginRequest: req, Module: module})
	}
	for _, c := range contexts {
		plan.Repositories.Sections = append(plan.Repositories.Sections, repository.Section{
			Context:   c,
			Endpoints: resolver.Resolve(c),
		})
	}
	return plan, nil
}
