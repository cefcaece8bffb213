package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"devstack/internal/layout"
	"devstack/internal/repository"
	"github.com/spf13/cobra"
)

var defaultProjects = []string{":app"}

func newLayoutCmd(opts *options) *cobra.Command {
	format := newFormatValue(repository.FormatText, repository.FormatText, repository.FormatJSON)

	cmd := &cobra.Command{
		Use:   "layout [project...]",
		Short: "Show the relocated build directories",
		Long: `Print the root build directory and the build directory of each given
subproject (default :app). Outputs go to <androidDir>/../build instead of
<androidDir>/build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = defaultProjects
			}
			return renderLayout(cmd.OutOrStdout(), format.format, opts.layout(), args)
		},
	}
	cmd.Flags().VarP(format, "format", "o", "output format (text, json)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove the root build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l := opts.layout()
			if err := l.Clean(); err != nil {
				return err
			}
			opts.logger.Info("build directory removed", "dir", l.RootBuildDir)
			return nil
		},
	})
	return cmd
}

func (o *options) layout() layout.Layout {
	return layout.New(o.config.Layout.AndroidDir, o.config.Layout.BuildDir)
}

type projectDir struct {
	Project  string `json:"project"`
	BuildDir string `json:"buildDir"`
}

func renderLayout(w io.Writer, format repository.Format, l layout.Layout, projects []string) error {
	dirs := make([]projectDir, 0, len(projects))
	for _, p := range projects {
		dir, err := l.ProjectBuildDir(p)
		if err != nil {
			return err
		}
		dirs = append(dirs, projectDir{Project: p, BuildDir: dir})
	}

	if format == repository.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			layout.Layout
			Projects []projectDir `json:"projects"`
		}{l, dirs})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "android dir:\t%s\n", l.AndroidDir)
	fmt.Fprintf(tw, "root build dir:\t%s\n", l.RootBuildDir)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PROJECT\tBUILD DIR")
	for _, d := range dirs {
		fmt.Fprintf(tw, "%s\t%s\n", d.Project, d.BuildDir)
	}
	return tw.Flush()
}
