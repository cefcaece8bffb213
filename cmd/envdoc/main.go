// Command envdoc prints the environment variables devstack reads as markdown.
package main

import (
	"fmt"
	"io"
	"os"

	"devstack/internal/config"
	"devstack/internal/repository"
)

func main() {
	if err := write(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func write(w io.Writer) error {
	p := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("# devstack Environment Variables")
	p("")
	p("Environment variables override values from the configuration file.")
	p("A dotenv file passed with `--env-file` is loaded first; variables already")
	p("set in the environment win.")
	p("")
	p("## Repository mirrors")
	p("")
	p("- `%s=true` prepends the mirror endpoints to both repository lists.", repository.MirrorsEnvVar)
	p("  Only `true` (any case) enables them; every other value disables them.")
	p("")
	p("## Configuration overrides")
	p("")
	p("Lists and maps, such as `proxy.routes`, can only be set in the file.")
	p("")
	for _, ev := range config.EnvVars() {
		if ev.Default == "" {
			p("- `%s`", ev.Key)
			continue
		}
		p("- `%s` (default `%s`)", ev.Key, ev.Default)
	}
	p("")
	p("## Examples")
	p("")
	p("```bash")
	p("# Resolve through the mirrors")
	p("export %s=true", repository.MirrorsEnvVar)
	p("devstack repos --format gradle > mirrors.init.gradle.kts")
	p("")
	p("# Serve the proxy on another port")
	p("export %s_PROXY_HTTP_PORT=9090", config.EnvPrefix)
	p("devstack proxy")
	p("")
	p("# Point the internal mirror elsewhere")
	p("export %s_REPOSITORIES_INTERNALMIRROR=http://nexus.local:8081/repository/android-group/", config.EnvPrefix)
	p("```")
	return nil
}
