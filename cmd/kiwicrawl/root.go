package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/kiwicrawl/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for kiwicrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kiwicrawl",
		Short: "Breadth-first crawler for Kiwix wiki archives",
		Long: `kiwicrawl crawls an offline wiki served by kiwix-serve.

Starting from one or more seed titles it fetches pages breadth-first,
extracts visible text and links, and writes three artifacts:
corpus.jsonl (one page per line), graph.json (nodes and edges), and
run.log (the crawl's event trace).

The crawl is bounded by a maximum depth and a maximum page count.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging (prints the event trace)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, log.Redact(err.Error()))
		os.Exit(1)
	}
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags. A missing flag reads as false.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the structured logger. Verbose mode lowers the level
// to debug, which is where the crawl's event trace is logged.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	return log.New(w, verbose, jsonFormat)
}
