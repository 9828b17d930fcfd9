package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/ingestion"
	"github.com/manualiq/manualiq-go/internal/logging"
)

// NewIngestCmd constructs the `manualiq ingest` command, which embeds a
// manual-chunk CSV into the catalog CSV the loader consumes.
func NewIngestCmd() *cobra.Command {
	var input string
	var output string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed a manual-chunk CSV into the searchable catalog",
		Long: `Read a CSV of manual page chunks, embed each chunk text through the
configured embedding backend, and write the catalog CSV consumed at
startup.

Input CSV header:
  pdf_filename,subsection_pdf_page_number,chunk_text

Output CSV header:
  pdf_filename,subsection_pdf_page_number,embeddings

Environment variables:
  EMBEDDING_PROVIDER     Embedding backend: gemini, openai, ollama (default: gemini)
  EMBEDDING_MODEL        Backend-specific model override
  EMBEDDING_DIMENSIONS   Output dimensionality (default: 128)
  EMBEDDING_API_KEY      API key (falls back to GOOGLE_API_KEY / OPENAI_API_KEY)

Examples:
  manualiq ingest --input manual_chunks.csv --output document_catalog.csv
  manualiq ingest -i chunks.csv -o catalog.csv --batch-size 64`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if input == "" {
				return fmt.Errorf("ingest: --input is required")
			}
			if output == "" {
				output = getEnvOrDefault("CATALOG_PATH", defaultCatalogPath)
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", embedder.ResolveBackend()))

			pipeline, err := ingestion.NewPipeline(emb, &ingestion.Config{BatchSize: batchSize})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion",
				slog.String("input", input),
				slog.String("output", output),
			)

			rows, err := pipeline.Run(ctx, input, output, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("rows", rows),
				slog.String("catalog", output),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Chunk CSV to embed (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Catalog CSV to write (default: CATALOG_PATH)")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Chunks per embedding request (default: 32)")

	return cmd
}
