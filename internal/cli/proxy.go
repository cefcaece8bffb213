package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devstack/internal/app"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newProxyCmd(opts *options, version string) *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the development proxy",
		Long: `Serve the web frontend's development proxy. Requests under /api/ are
forwarded to http://localhost:8001 with the /api prefix stripped, unless the
route table is overridden in the config file. With a config file the route
table is reloaded when the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				opts.config.Proxy.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				opts.config.Proxy.HTTP.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runProxy(ctx, opts, version, watch)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&host, "host", "", "listen host (overrides proxy.http.host)")
	fs.IntVar(&port, "port", 0, "listen port (overrides proxy.http.port)")
	fs.BoolVar(&watch, "watch", true, "reload routes when the config file changes")
	return cmd
}

func runProxy(ctx context.Context, opts *options, version string, watch bool) error {
	logger := opts.logger

	srv, err := app.NewBuilder(opts.config, logger).WithVersion(version).Build()
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if watch && opts.configPath != "" {
		if err := srv.Watch(opts.configPath); err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-srv.Done():
		if serveErr != nil {
			logger.Error("server stopped", "error", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return serveErr
}
