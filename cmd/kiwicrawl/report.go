package main

import (
	"fmt"

	"github.com/nao1215/kiwicrawl/internal/output"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <output-dir>",
		Short: "Render a Markdown summary of a crawl output directory",
		Long: `Report reads corpus.jsonl, graph.json, and run.log from a crawl output
directory and renders a Markdown summary with the fetched pages, the
link graph, and the event trace.

Examples:
  # Print the summary of the default output directory
  kiwicrawl report crawl_output

  # Write the summary to a file
  kiwicrawl report crawl_output -o summary.md`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write the summary to this file instead of stdout")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	artifacts, err := output.ReadDir(args[0])
	if err != nil {
		return fmt.Errorf("failed to read crawl output: %w", err)
	}

	summary := &output.Summary{Artifacts: artifacts}

	if outputPath != "" {
		if err := writeMarkdownFile(outputPath, summary); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", outputPath)
		return nil
	}

	return output.NewMarkdownWriter(cmd.OutOrStdout()).Write(summary)
}
