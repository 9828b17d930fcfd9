package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/agent"
	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/provider"
	"github.com/manualiq/manualiq-go/internal/server"
	"github.com/manualiq/manualiq-go/internal/tracing"
)

// NewServeCmd constructs the `manualiq serve` command, which starts the HTTP
// server exposing the chat, search, and display event APIs.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ManualIQ HTTP server",
		Long: `Start the ManualIQ HTTP server on localhost.

The server exposes a REST/SSE API: POST /api/chat streams agent answers,
POST /api/search ranks the catalog directly, and GET /api/events streams
document display commands to connected viewers.

Examples:
  manualiq serve
  manualiq serve --port 9090
  MODEL_PROVIDER=ollama manualiq serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Flags win, then SERVER_HOST/SERVER_PORT (env or YAML config).
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("SERVER_PORT", port)
			}

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

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised")

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedder: %w", err)
			}

			engine, catalogStore, closeStore, err := buildEngine(ctx, emb, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeStore()

			displays := newDisplayQueue()

			historyStore, closeHistory := openHistoryStore(log)
			defer closeHistory()

			iqAgent, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				Tools:     buildTools(engine, displays),
				History:   historyStore,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to initialise agent: %w", err)
			}

			chunkCount, err := catalogStore.Count(ctx)
			if err != nil {
				chunkCount = 0
			}

			pingers := []server.Pinger{
				server.NewEmbedderPinger(emb, embedder.ResolveBackend()),
				server.NewStorePinger(catalogStore),
			}

			srv, err := server.New(iqAgent, engine, displays, &server.Config{
				Host:          host,
				Port:          port,
				Logger:        log,
				Pingers:       pingers,
				APIKey:        os.Getenv("MANUALIQ_API_KEY"),
				CatalogChunks: chunkCount,
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
