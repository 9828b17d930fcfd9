package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/logging"
)

// NewSearchCmd constructs the `manualiq search` command, which ranks the
// manual catalog against a query and prints the shortlist without invoking
// the LLM agent.
func NewSearchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the manual catalog directly, without the agent",
		Long: `Rank the embedded manual catalog against a natural language query and
print the shortlist. Useful for inspecting retrieval quality without
spending LLM tokens.

The ranking policy is selected via SEARCH_POLICY (frequency, simple).

Examples:
  manualiq search "oven temperature settings"
  manualiq search --json "dishwasher filter cleaning"
  SEARCH_POLICY=simple manualiq search "thermostat schedule"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("search: failed to initialise embedder: %w", err)
			}

			engine, _, closeStore, err := buildEngine(ctx, emb, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer closeStore()

			query := strings.Join(args, " ")
			results, err := engine.Search(ctx, query)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results) //nolint:wrapcheck // CLI output encoding
			}

			if len(results) == 0 {
				fmt.Println("No documents found matching the query.")
				return nil
			}
			for i, r := range results {
				line := fmt.Sprintf("%d. %s (relevance: %.3f)", i+1, r.DisplayText, r.Similarity)
				if r.Matches > 1 {
					line += fmt.Sprintf(" [%d matching sections]", r.Matches)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
