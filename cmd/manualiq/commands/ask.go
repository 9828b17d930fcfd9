package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/agent"
	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/provider"
	"github.com/manualiq/manualiq-go/internal/store"
)

// NewAskCmd constructs the `manualiq ask` command, which sends a single
// natural language question to the agent and streams the response to stdout.
func NewAskCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the building's appliances",
		Long: `Ask the ManualIQ agent a natural language question about an appliance.

The agent searches the embedded manual catalog, answers grounded in the
matching pages, and prints any queued document display commands after the
answer.

Examples:
  manualiq ask "how do I descale the coffee machine?"
  manualiq ask "what does error E4 on the washing machine mean?"
  manualiq ask --session kitchen "and how often should I do that?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			emb, err := embedder.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			engine, _, closeStore, err := buildEngine(ctx, emb, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeStore()

			displays := newDisplayQueue()

			// History only matters when the caller names a session to
			// continue; one-shot questions stay stateless.
			var history store.ConversationStore
			if session != "" {
				hs, closeHistory := openHistoryStore(log)
				if hs != nil {
					history = hs
					defer closeHistory()
				}
			}

			iqAgent, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				Tools:     buildTools(engine, displays),
				History:   history,
			})
			if err != nil {
				return fmt.Errorf("ask: failed to initialise agent: %w", err)
			}

			question := strings.Join(args, " ")
			if err := iqAgent.Query(ctx, question, session, os.Stdout); err != nil {
				return err //nolint:wrapcheck // CLI entry point, error goes directly to cobra
			}
			fmt.Println()

			// Print any display commands the agent queued during the answer.
			for displays.Len() > 0 {
				dc := <-displays.Commands()
				data, err := json.Marshal(dc)
				if err != nil {
					continue
				}
				fmt.Printf("display: %s\n", data)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Conversation session id for history scoping")

	return cmd
}
