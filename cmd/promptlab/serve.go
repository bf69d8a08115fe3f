package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/lamim/promptlab/internal/api"
	"github.com/lamim/promptlab/internal/metrics"
	"github.com/lamim/promptlab/internal/orchestrator"
	"github.com/lamim/promptlab/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the experiment API over HTTP",
		Long: `Serve a local JSON API for running experiments and browsing history.
Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			collector := metrics.NewCollector()
			client := api.NewClient(a.logger, collector)
			orch := orchestrator.New(a.cfg, a.secrets, client, a.repo, a.logger, collector)

			logger := a.logger.With("component", "server")
			h := server.NewHandler(orch, a.repo, a.cfg.Story, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, a.cfg.Server.Addr, server.NewRouter(h, logger), logger)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides [server] addr)")
	return cmd
}
