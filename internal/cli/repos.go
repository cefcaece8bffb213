package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"devstack/internal/buildplan"
	"devstack/internal/layout"
	"devstack/internal/repository"
	apperrors "devstack/pkg/errors"
	"devstack/pkg/metrics"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type reposOptions struct {
	*options
	context    contextValue
	format     *formatValue
	properties string
}

func newReposCmd(opts *options) *cobra.Command {
	o := &reposOptions{
		options: opts,
		format: newFormatValue(repository.FormatText,
			repository.FormatText, repository.FormatJSON, repository.FormatYAML, repository.FormatGradle),
	}

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Print the resolved Maven repository lists",
		Long: `Print the ordered Maven repository lists for application dependencies and
build plugins. Mirror endpoints are prepended when USE_LOCAL_MAVEN_MIRRORS
is "true" (case-insensitive); the canonical repositories always come last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := o.plan()
			if err != nil {
				return err
			}
			return repository.Render(cmd.OutOrStdout(), o.format.format, plan.Repositories)
		},
	}

	fs := cmd.PersistentFlags()
	fs.Var(&o.context, "context", "resolution context (dependencies, plugins or all)")
	addPropertiesFlag(fs, &o.properties)
	cmd.Flags().VarP(o.format, "format", "o", "output format (text, json, yaml, gradle)")

	cmd.AddCommand(newReposCheckCmd(o))
	return cmd
}

// resolverConfig reads the mirror toggle. It is called once per command.
func (o *reposOptions) resolverConfig() repository.ResolverConfig {
	return repository.ConfigFromEnv(nil, o.config.Repositories.InternalMirror)
}

// plan evaluates local.properties and then resolves the selected contexts
func (o *reposOptions) plan() (*buildplan.Plan, error) {
	return buildPlan(o.options, o.properties, o.resolverConfig(), o.context.Contexts()...)
}

func buildPlan(opts *options, properties string, rc repository.ResolverConfig, contexts ...repository.Context) (*buildplan.Plan, error) {
	if properties == "" {
		properties = opts.config.Settings.PropertiesFile
	}
	l := layout.New(opts.config.Layout.AndroidDir, opts.config.Layout.BuildDir)
	plan, err := buildplan.Build(properties, repository.NewResolver(rc), rc.MirrorsEnabled, l, contexts...)
	if err != nil {
		return nil, apperrors.Wrap(err, "evaluating "+properties)
	}
	opts.logger.Debug("settings evaluated",
		"properties", plan.Settings.Path,
		"mirrors", rc.MirrorsEnabled,
		"contexts", len(plan.Repositories.Sections),
	)
	return plan, nil
}

type checkOptions struct {
	*reposOptions
	format          *formatValue
	failUnreachable bool
	textfile        string
}

func newReposCheckCmd(parent *reposOptions) *cobra.Command {
	o := &checkOptions{
		reposOptions: parent,
		format:       newFormatValue(repository.FormatText, repository.FormatText, repository.FormatJSON),
	}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the resolved repositories for reachability",
		Long: `Send a HEAD request to every resolved repository endpoint and report
which ones answer. The probe is diagnostic only and never changes the
resolution order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	fs := cmd.Flags()
	fs.VarP(o.format, "format", "o", "output format (text, json)")
	fs.BoolVar(&o.failUnreachable, "fail-unreachable", false, "exit non-zero when any endpoint is unreachable")
	fs.StringVar(&o.textfile, "metrics-textfile", "", "write probe metrics in Prometheus text format to this file")
	return cmd
}

func (o *checkOptions) run(cmd *cobra.Command) error {
	plan, err := o.plan()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)

	pc := o.config.Repositories.Probe
	prober := repository.NewProber(&http.Client{}, repository.ProbeConfig{
		Timeout:     pc.ProbeTimeout(),
		Attempts:    pc.Attempts,
		Concurrency: pc.Concurrency,
	}, o.logger).WithObserver(func(r repository.ProbeResult) {
		m.ProbesTotal.WithLabelValues(r.Endpoint.Name, metrics.ReachabilityLabel(r.Reachable)).Inc()
		m.ProbeDuration.WithLabelValues(r.Endpoint.Name).Observe(r.Latency.Seconds())
	})

	report := probeReport{MirrorsEnabled: plan.Repositories.MirrorsEnabled}
	for _, section := range plan.Repositories.Sections {
		results, err := prober.Probe(cmd.Context(), section.Endpoints)
		if err != nil {
			return fmt.Errorf("probing %s repositories: %w", section.Context, err)
		}
		report.Sections = append(report.Sections, probeSection{Context: section.Context, Results: results})
	}

	if o.textfile != "" {
		if err := prometheus.WriteToTextfile(o.textfile, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if err := report.render(cmd.OutOrStdout(), o.format.format); err != nil {
		return err
	}

	if n := report.unreachable(); n > 0 && o.failUnreachable {
		return apperrors.NewError(apperrors.ErrorTypeUnavailable, "repository endpoints unreachable").
			WithDetail("count", n)
	}
	return nil
}

type probeSection struct {
	Context repository.Context       `json:"context"`
	Results []repository.ProbeResult `json:"results"`
}

type probeReport struct {
	MirrorsEnabled bool           `json:"mirrorsEnabled"`
	Sections       []probeSection `json:"sections"`
}

func (r probeReport) unreachable() int {
	n := 0
	for _, s := range r.Sections {
		for _, res := range s.Results {
			if !res.Reachable {
				n++
			}
		}
	}
	return n
}

func (r probeReport) render(w io.Writer, format repository.Format) error {
	if format == repository.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "# %s\n", s.Context)
		fmt.Fprintln(tw, "NAME\tSTATUS\tCODE\tATTEMPTS\tLATENCY\tURL")
		for _, res := range s.Results {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
				res.Endpoint.Name,
				status(res.Reachable),
				res.StatusCode,
				res.Attempts,
				res.Latency.Round(time.Millisecond),
				res.Endpoint.URL,
			)
		}
	}
	return tw.Flush()
}

func status(reachable bool) string {
	label := metrics.ReachabilityLabel(reachable)
	if reachable {
		return color.GreenString(label)
	}
	return color.RedString(label)
}
