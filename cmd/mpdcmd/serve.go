package main

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pior/mpdcmd/metrics"
	"github.com/pior/mpdcmd/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen, metricsListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a line server backed by an in-memory player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config.Server
			if listen != "" {
				cfg.Listen = listen
			}
			if metricsListen != "" {
				cfg.MetricsListen = metricsListen
			}

			srv := server.New(server.NewPlayer(), cfg.ServerConfig(a.logger))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				err := srv.ListenAndServe(ctx, cfg.Listen)
				if errors.Is(err, server.ErrServerClosed) {
					return nil
				}
				return err
			})

			if cfg.MetricsListen != "" {
				exporter, err := metrics.NewExporter(metrics.NewServerCollector(srv))
				if err != nil {
					return err
				}
				a.logger.Info("serving metrics", "addr", cfg.MetricsListen)
				g.Go(func() error {
					return exporter.ListenAndServe(ctx, cfg.MetricsListen)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides server.listen)")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "address of the /metrics endpoint (overrides server.metrics_listen)")
	return cmd
}
