// Command manualiq is the entry point for the ManualIQ appliance-manual
// assistant. It provides a CLI interface (via Cobra) and an optional HTTP
// server with an SSE API for interactive use.
package main

import (
	"fmt"
	"os"

	"github.com/manualiq/manualiq-go/cmd/manualiq/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
