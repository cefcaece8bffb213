package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Format selects how a resolved listing is written.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatGradle Format = "gradle"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatGradle:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, yaml or gradle)", s)
	}
}

// Section is the resolved list for one context.
type Section struct {
	Context   Context    `json:"context" yaml:"context"`
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Listing is what the repos command prints.
type Listing struct {
	MirrorsEnabled bool      `json:"mirrorsEnabled" yaml:"mirrorsEnabled"`
	Sections       []Section `json:"sections" yaml:"sections"`
}

// Render writes l to w in the requested format.
func Render(w io.Writer, format Format, l Listing) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}
		return enc.Close()
	case FormatGradle:
		return gradleTemplate.Execute(w, l)
	case FormatText, "":
		return renderText(w, l)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(w io.Writer, l Listing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range l.Sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "# %s (mirrors enabled: %t)\n", s.Context, l.MirrorsEnabled)
		fmt.Fprintln(tw, "ORDER\tNAME\tKIND\tURL")
		for j, e := range s.Endpoints {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", j+1, e.Name, e.Kind, e.URL)
		}
	}
	return tw.Flush()
}

// gradleRepository renders one endpoint as a Gradle Kotlin DSL statement.
func gradleRepository(e Endpoint) string {
	switch {
	case e.Kind == KindGoogle && e.URL == Google.URL:
		return "google()"
	case e.Kind == KindCentral && e.URL == MavenCentral.URL:
		return "mavenCentral()"
	case e.Kind == KindPluginPortal && e.URL == GradlePluginPortal.URL:
		return "gradlePluginPortal()"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "maven {\n")
	fmt.Fprintf(&b, "    url = uri(%q)\n", e.URL)
	if strings.HasPrefix(e.URL, "http://") {
		fmt.Fprintf(&b, "    isAllowInsecureProtocol = true\n")
	}
	if e.MetadataPolicy == MetadataPOMAndArtifact {
		fmt.Fprintf(&b, "    metadataSources { mavenPom(); artifact() }\n")
	}
	b.WriteString("}")
	return b.String()
}

func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

var gradleTemplate = template.Must(template.New("init.gradle.kts").Funcs(template.FuncMap{
	"repo":   gradleRepository,
	"indent": indent,
}).Parse(`// Generated by devstack. Mirrors enabled: {{ .MirrorsEnabled }}.
{{- range .Sections }}
{{- if eq .Context "plugins" }}

beforeSettings {
    pluginManagement {
        repositories {
{{- range .Endpoints }}
{{ indent 12 (repo .) }}
{{- end }}
        }
    }
}
{{- else }}

allprojects {
    repositories {
{{- range .Endpoints }}
{{ indent 8 (repo .) }}
{{- end }}
    }
}
{{- end }}
{{- end }}
`))
