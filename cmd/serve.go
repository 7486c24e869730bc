package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mmmorks/chatter/internal/graph"
	"github.com/mmmorks/chatter/internal/metrics"
	"github.com/mmmorks/chatter/internal/server"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the API server",
	Long: `Start an HTTP server that serves the GraphQL API.

The server exposes:
  - GraphQL endpoint at /graphql (POST)
  - GraphQL Playground at /graphql (GET) for interactive queries
  - Store health at /healthz
  - Prometheus metrics at /metrics

Examples:
  # Start server on the configured address (default :4000)
  chatter serve --store mongodb://localhost:27017/chatter

  # Start server on a custom address
  chatter serve --addr :8080

Query arguments are typed ID: rUser, rPost and rComment take id: ID, not the
Int of earlier deployments, so clients declaring $id: Int must switch to ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := openCore(ctx); err != nil {
			return err
		}
		return runServer(ctx)
	},
}

func runServer(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	schema, err := graph.NewSchema(&graph.Resolver{Core: core, Logger: logger, Metrics: m}, graph.SchemaOptions{
		MaxParallelism: cfg.Server.MaxParallelism,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Schema:     schema,
		Store:      core,
		Logger:     logger,
		Metrics:    m,
		Gatherer:   reg,
		Playground: cfg.Server.Playground,
	})
	return srv.Run(ctx, cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Address to listen on (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
