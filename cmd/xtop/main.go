// xtop — interactive query engine over sampled Linux thread-state
// snapshots (xcapture). This binary is the testing façade spec.md §6.2
// calls for: a thin, non-interactive CLI plus an MCP adapter, both
// calling straight into internal/engine with no logic of their own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := newQueryCmd()
	rootCmd.Use = "xtop"
	rootCmd.Version = version
	rootCmd.AddCommand(newMCPCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
