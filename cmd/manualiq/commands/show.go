package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manualiq/manualiq-go/internal/display"
)

// NewShowCmd constructs the `manualiq show` command, which builds the
// display command for a manual page and prints it as JSON. A connected
// viewer consumes the same payload from the server's /api/events stream.
func NewShowCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "show [filename]",
		Short: "Print the display command for a manual page",
		Long: `Build the show_document display command for a manual PDF and print it to
stdout as JSON. This is the exact payload delivered to viewers over the
server's /api/events stream.

Examples:
  manualiq show 001.pdf
  manualiq show 100.pdf --page 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				page = 1
			}

			payload := display.ShowDocument(args[0], page)
			enc := json.NewEncoder(os.Stdout)
			if err := enc.Encode(payload); err != nil {
				return fmt.Errorf("show: encode failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number to display")

	return cmd
}
