package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cuekiterrors "github.com/cuekit-dev/cuekit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cuekit",
		Short: "Reactive property core for show control",
		Long: `cuekit is the reactive object model behind cue-based show control.

It tracks which attributes of a show object are properties, observes
every change through signals, and serializes object state as nested
key-value snapshots. The bundled bridge publishes registered objects
over HTTP and WebSocket for UI binding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		defaultsCmd(),
		typesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if se, ok := err.(*cuekiterrors.Error); ok {
			fmt.Fprint(os.Stderr, se.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// versionCmd prints build information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cuekit %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
