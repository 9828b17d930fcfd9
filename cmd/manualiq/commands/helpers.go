package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/tool"

	"github.com/manualiq/manualiq-go/internal/catalog"
	"github.com/manualiq/manualiq-go/internal/display"
	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/search"
	"github.com/manualiq/manualiq-go/internal/store"
	"github.com/manualiq/manualiq-go/internal/tools"
	"github.com/manualiq/manualiq-go/internal/vectorstore"
)

// defaultCatalogPath is the embeddings catalog consulted when CATALOG_PATH
// is not set.
const defaultCatalogPath = "document_catalog.csv"

// buildStore constructs the vector store selected by VECTOR_STORE: "memory"
// (default) or "qdrant". The Qdrant collection is sized to the active
// embedding backend's dimensionality.
func buildStore(ctx context.Context, log *slog.Logger) (vectorstore.Store, error) {
	backend := getEnvOrDefault("VECTOR_STORE", "memory")

	switch backend {
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	case "qdrant":
		host := getEnvOrDefault("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		vectorSize := uint64(embedder.DefaultDimensions(embedder.ResolveBackend())) //nolint:gosec // dimensions are bounded

		store, err := vectorstore.NewQdrantStore(ctx, &vectorstore.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: getEnvOrDefault("QDRANT_COLLECTION", "manualiq-catalog"),
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant store ready", slog.String("host", host), slog.Int("port", port))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE %q (valid: memory, qdrant)", backend)
	}
}

// buildEngine wires the vector store, catalog loader, and ranking engine
// around the given embedder. The returned cleanup closes the store.
// A missing or unreadable catalog is non-fatal: the store stays empty and
// every search returns no results.
func buildEngine(ctx context.Context, emb embedder.Embedder, log *slog.Logger) (*search.Engine, vectorstore.Store, func(), error) {
	vs, err := buildStore(ctx, log)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { _ = vs.Close() }

	loader := catalog.NewLoader(vs, catalog.Config{
		Path:      getEnvOrDefault("CATALOG_PATH", defaultCatalogPath),
		RowLimit:  getEnvInt("CATALOG_ROW_LIMIT", 0),
		BatchSize: getEnvInt("CATALOG_BATCH_SIZE", 0),
	})
	loaded, err := loader.EnsureLoaded(ctx)
	if err != nil {
		log.Warn("catalog load failed, store stays empty", slog.Any("error", err))
	} else {
		log.Info("catalog loaded", slog.Int("chunks", loaded))
	}

	engine, err := search.NewEngine(emb, vs, search.Config{
		Policy:           os.Getenv("SEARCH_POLICY"),
		RelevancyFloor:   getEnvFloat("SEARCH_RELEVANCY_FLOOR", 0),
		MaxResults:       getEnvInt("SEARCH_MAX_RESULTS", 0),
		SimpleMaxResults: getEnvInt("SEARCH_SIMPLE_MAX_RESULTS", 0),
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create ranking engine: %w", err)
	}

	return engine, vs, cleanup, nil
}

// buildTools constructs the full list of Eino-compatible document tools to
// register with the agent.
func buildTools(engine *search.Engine, displays *display.Queue) []tool.BaseTool {
	return []tool.BaseTool{
		tools.NewFindDocumentsTool(engine),
		tools.NewDisplayDocumentTool(displays),
	}
}

// newDisplayQueue constructs the display command queue with the configured
// capacity.
func newDisplayQueue() *display.Queue {
	return display.NewQueue(getEnvInt("DISPLAY_QUEUE_CAPACITY", display.DefaultQueueCapacity))
}

// openHistoryStore opens the conversation history store. MANUALIQ_HISTORY_DB
// overrides the default path (~/.manualiq/history.db); set it to "disabled"
// to turn history off. Failures are non-fatal: the agent runs stateless and
// the returned store is nil.
func openHistoryStore(log *slog.Logger) (store.ConversationStore, func()) {
	noop := func() {}

	dbPath := os.Getenv("MANUALIQ_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via MANUALIQ_HISTORY_DB=disabled")
		return nil, noop
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, noop
		}
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, noop
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
