package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/server"
)

// NewDiagnoseCmd constructs the `manualiq diagnose` command, which probes
// every configured dependency and reports what a `serve` run would find.
func NewDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check embedding backend, vector store, and catalog health",
		Long: `Probe the configured embedding backend and vector store, load the
catalog, and report each check. Exits non-zero when any check fails.

Examples:
  manualiq diagnose
  EMBEDDING_PROVIDER=ollama manualiq diagnose
  VECTOR_STORE=qdrant manualiq diagnose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			failed := false
			report := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Fprintf(os.Stdout, "FAIL  %s: %v\n", name, err)
					return
				}
				fmt.Fprintf(os.Stdout, "OK    %s\n", name)
			}

			report("embedder config", embedder.Validate(log))

			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				report("embedder init", err)
				return fmt.Errorf("diagnose: checks failed")
			}
			report("embedder init", nil)

			report(embedder.ResolveBackend()+" reachability",
				server.NewEmbedderPinger(emb, embedder.ResolveBackend()).Ping(ctx))

			engine, catalogStore, closeStore, err := buildEngine(ctx, emb, log)
			if err != nil {
				report("vector store", err)
				return fmt.Errorf("diagnose: checks failed")
			}
			defer closeStore()
			report("vector store", server.NewStorePinger(catalogStore).Ping(ctx))

			count, err := catalogStore.Count(ctx)
			report("catalog", err)
			if err == nil {
				fmt.Fprintf(os.Stdout, "      chunks loaded: %d\n", count)
				fmt.Fprintf(os.Stdout, "      ranking policy: %s\n", engine.Policy())
			}

			if failed {
				return fmt.Errorf("diagnose: checks failed")
			}
			fmt.Fprintln(os.Stdout, "All checks passed.")
			return nil
		},
	}
}
