package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc-go/internal/logging"
	"github.com/askdoc/askdoc-go/internal/server"
	"github.com/askdoc/askdoc-go/internal/tracing"
)

// NewServeCmd constructs the `askdoc serve` command, which starts the HTTP
// server exposing the query pipeline as a REST API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the askdoc HTTP server",
		Long: `Start the askdoc HTTP server on localhost.

The server exposes POST /api/query for document question answering,
PUT /api/prompts for live prompt template updates, health and readiness
probes, and a Prometheus /metrics endpoint.

Examples:
  askdoc serve
  askdoc serve --port 9090
  MODEL_PROVIDER=azure askdoc serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			host, port = listenAddress(
				cmd.Flags().Changed("host"), host,
				cmd.Flags().Changed("port"), port,
			)

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			p, qdrantStore, closePipeline, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closePipeline()

			hist, closeHistory := openHistory(log)
			defer closeHistory()

			srv, err := server.New(p, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   buildPingers(qdrantStore),
				APIKey:    os.Getenv("ASKDOC_API_KEY"),
				RateLimit: envFloat("SERVER_RATE_LIMIT", 0),
				RateBurst: envInt("SERVER_RATE_BURST", 0),
				History:   hist,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
