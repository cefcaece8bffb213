package cli

import (
	"fmt"
	"strings"

	"devstack/internal/repository"
	"github.com/spf13/pflag"
)

const allContexts = "all"

// contextValue is the --context flag. Empty selects every context.
type contextValue struct {
	contexts []repository.Context
}

var _ pflag.Value = (*contextValue)(nil)

// Set implements pflag.Value.
func (v *contextValue) Set(s string) error {
	if strings.EqualFold(strings.TrimSpace(s), allContexts) {
		v.contexts = nil
		return nil
	}
	c, err := repository.ParseContext(s)
	if err != nil {
		return err
	}
	v.contexts = []repository.Context{c}
	return nil
}

// String implements pflag.Value.
func (v *contextValue) String() string {
	if len(v.contexts) == 0 {
		return allContexts
	}
	return string(v.contexts[0])
}

// Type implements pflag.Value.
func (v *contextValue) Type() string {
	return "context"
}

// Contexts returns the selected contexts
func (v *contextValue) Contexts() []repository.Context {
	if len(v.contexts) == 0 {
		return repository.Contexts()
	}
	return v.contexts
}

// formatValue is the --format flag
type formatValue struct {
	format  repository.Format
	allowed []repository.Format
}

var _ pflag.Value = (*formatValue)(nil)

func newFormatValue(def repository.Format, allowed ...repository.Format) *formatValue {
	return &formatValue{format: def, allowed: allowed}
}

// Set implements pflag.Value.
func (v *formatValue) Set(s string) error {
	f, err := repository.ParseFormat(s)
	if err != nil {
		return err
	}
	for _, a := range v.allowed {
		if a == f {
			v.format = f
			return nil
		}
	}
	return fmt.Errorf("format %q is not supported here (want %s)", s, v.names())
}

// String implements pflag.Value.
func (v *formatValue) String() string {
	return string(v.format)
}

// Type implements pflag.Value.
func (v *formatValue) Type() string {
	return "format"
}

func (v *formatValue) names() string {
	names := make([]string, len(v.allowed))
	for i, a := range v.allowed {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

// addPropertiesFlag registers --properties on fs
func addPropertiesFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVarP(target, "properties", "p", "", "local.properties path (overrides settings.propertiesFile)")
}
