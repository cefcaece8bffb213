// Package cli implements the devstack command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"devstack/internal/config"
	apperrors "devstack/pkg/errors"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is picked up from the working directory when --config
// is not given.
const DefaultConfigFile = "devstack.yaml"

// Exit codes
const (
	ExitOK     = 0
	ExitError  = 1
	ExitConfig = 2
)

// options are the persistent flags and what PersistentPreRunE derives
// from them
type options struct {
	configPath string
	envFile    string
	logLevel   string

	logger *slog.Logger
	config *config.Config
}

// NewRootCmd creates the root command with all subcommands
func NewRootCmd(version, commit, date string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "devstack",
		Short: "Developer tooling for the attendance app frontend build",
		Long: `devstack resolves the Maven repository lists used by the Android build,
validates local.properties, computes the relocated build-output layout and
runs the local development proxy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (built on %s from %s)", version, date, commit),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./"+DefaultConfigFile+" if present)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before reading the environment")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newReposCmd(opts))
	cmd.AddCommand(newSettingsCmd(opts))
	cmd.AddCommand(newLayoutCmd(opts))
	cmd.AddCommand(newProxyCmd(opts, version))

	return cmd
}

// Execute runs the root command
func Execute(cmd *cobra.Command) error {
	return cmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
// Configuration errors exit with 2.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case apperrors.IsType(err, apperrors.ErrorTypeConfig):
		return ExitConfig
	default:
		return ExitError
	}
}

func (o *options) init(stderr io.Writer) error {
	level, ok := logLevels[strings.ToLower(o.logLevel)]
	if !ok {
		return apperrors.NewError(apperrors.ErrorTypeConfig, "unknown log level").WithDetail("level", o.logLevel)
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := config.LoadEnvFile(o.envFile); err != nil {
		return apperrors.NewError(apperrors.ErrorTypeConfig, "failed to load env file").WithCause(err)
	}

	if o.configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			o.configPath = DefaultConfigFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return apperrors.NewError(apperrors.ErrorTypeConfig, "failed to stat config file").WithCause(err)
		}
	}

	cfg, err := config.NewLoader(o.configPath).Load()
	if err != nil {
		return err
	}
	o.config = cfg
	o.logger.Debug("configuration loaded", "file", o.configPath)
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}
