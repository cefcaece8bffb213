package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"devstack/internal/buildplan"
	"devstack/internal/repository"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSettingsCmd(opts *options) *cobra.Command {
	var properties string
	format := newFormatValue(repository.FormatText, repository.FormatText, repository.FormatJSON, repository.FormatYAML)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Validate local.properties and show the evaluated settings",
		Long: `Read local.properties and print what the Android settings phase derives
from it: the Flutter SDK, the included tooling build and the declared
plugins with their module substitutions. A missing flutter.sdk is an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc := repository.ConfigFromEnv(nil, opts.config.Repositories.InternalMirror)
			plan, err := buildPlan(opts, properties, rc)
			if err != nil {
				return err
			}
			return renderSettings(cmd.OutOrStdout(), format.format, plan)
		},
	}

	addPropertiesFlag(cmd.Flags(), &properties)
	cmd.Flags().VarP(format, "format", "o", "output format (text, json, yaml)")
	return cmd
}

type settingsView struct {
	Properties    string             `json:"properties" yaml:"properties"`
	FlutterSDK    string             `json:"flutterSdk" yaml:"flutterSdk"`
	AndroidSDK    string             `json:"androidSdk,omitempty" yaml:"androidSdk,omitempty"`
	IncludedBuild string             `json:"includedBuild" yaml:"includedBuild"`
	Plugins       []buildplan.Plugin `json:"plugins" yaml:"plugins"`
}

func renderSettings(w io.Writer, format repository.Format, plan *buildplan.Plan) error {
	view := settingsView{
		Properties:    plan.Settings.Path,
		FlutterSDK:    plan.Settings.FlutterSDK,
		AndroidSDK:    plan.Settings.AndroidSDK,
		IncludedBuild: plan.IncludedBuild,
		Plugins:       plan.Plugins,
	}

	switch format {
	case repository.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case repository.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "properties:\t%s\n", view.Properties)
	fmt.Fprintf(tw, "flutter.sdk:\t%s\n", view.FlutterSDK)
	if view.AndroidSDK != "" {
		fmt.Fprintf(tw, "sdk.dir:\t%s\n", view.AndroidSDK)
	}
	fmt.Fprintf(tw, "includeBuild:\t%s\n", view.IncludedBuild)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PLUGIN\tVERSION\tAPPLY\tMODULE")
	for _, p := range view.Plugins {
		module := p.Module
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.ID, p.Version, p.Apply, module)
	}
	return tw.Flush()
}
