package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/kiwicrawl/internal/config"
	"github.com/nao1215/kiwicrawl/internal/database"
	"github.com/nao1215/kiwicrawl/internal/output"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// errRunNotFound is returned when --run, --export or --delete names a run
// that is not in the database.
var errRunNotFound = errors.New("crawl run not found")

// NewHistoryCmd creates the history command.
// This command reads past crawl runs from the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and inspect past crawl runs",
		Long: `History shows crawl runs saved by 'kiwicrawl crawl'.

Without flags it lists the most recent runs. With --run it shows the pages
and edges of one run. With --export it writes that run's corpus.jsonl,
graph.json, run.log, and summary.md to a directory, exactly as the crawl
produced them.

Examples:
  # List the 20 most recent runs
  kiwicrawl history

  # Show one run
  kiwicrawl history --run 3

  # Write the artifacts of run 3 again
  kiwicrawl history --run 3 --export restored_output

  # Delete a run
  kiwicrawl history --delete 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run", "r", 0,
		"Show the run with this ID")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Number of runs to list (0 lists all)")
	cmd.Flags().StringP("export", "e", "",
		"Write the artifacts of --run to this directory")
	cmd.Flags().Int64("delete", 0,
		"Delete the run with this ID")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	exportDir, err := cmd.Flags().GetString("export")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Validate flag combinations before opening the database.
	if exportDir != "" && runID == 0 {
		return errors.New("--export requires --run")
	}
	if deleteID != 0 && runID != 0 {
		return errors.New("--delete cannot be combined with --run")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case deleteID != 0:
		return deleteRun(ctx, db, deleteID, out)
	case exportDir != "":
		return exportRun(ctx, db, runID, exportDir, out)
	case runID != 0:
		return showRun(ctx, db, runID, out)
	default:
		return listRuns(ctx, db, limit, out)
	}
}

// listRuns prints the most recent runs.
func listRuns(ctx context.Context, db *database.CrawlDB, limit int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs found in the database.")
		fmt.Fprintln(out, "\nUse 'kiwicrawl crawl <title>' to start a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-6s  %s\n", "ID", "Date", "Pages", "Edges", "Seeds")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-6d  %-6d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.PageCount,
			run.EdgeCount,
			strings.Join(run.Seeds, ", "),
		)
	}
	fmt.Fprintln(out, "\nUse 'kiwicrawl history --run <id>' to see the pages of a run.")

	return nil
}

// showRun prints the metadata, pages, and edges of one run.
func showRun(ctx context.Context, db *database.CrawlDB, id int64, out io.Writer) error {
	meta, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if meta == nil {
		return fmt.Errorf("%w: %d", errRunNotFound, id)
	}

	result, err := db.GetRunResult(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	fmt.Fprintf(out, "Run %d\n", meta.ID)
	fmt.Fprintf(out, "  Date:      %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Base URL:  %s\n", meta.BaseURL)
	fmt.Fprintf(out, "  Seeds:     %s\n", strings.Join(meta.Seeds, ", "))
	fmt.Fprintf(out, "  Max depth: %d\n", meta.Settings.MaxDepth)
	fmt.Fprintf(out, "  Max pages: %d\n", meta.Settings.MaxPages)

	fmt.Fprintf(out, "\nPages (%d):\n", len(result.Pages))
	for i, page := range result.Pages {
		fmt.Fprintf(out, "  %3d. %s  %s\n", i+1, page.Title, page.URL)
	}

	fmt.Fprintf(out, "\nEdges (%d):\n", len(result.Edges))
	for _, e := range result.Edges {
		fmt.Fprintf(out, "  %s -> %s\n", e.Source, e.Target)
	}

	return nil
}

// exportRun rebuilds one run and writes its artifacts to dir.
func exportRun(ctx context.Context, db *database.CrawlDB, id int64, dir string, out io.Writer) error {
	meta, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if meta == nil {
		return fmt.Errorf("%w: %d", errRunNotFound, id)
	}

	result, err := db.GetRunResult(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	writer := output.NewWriter(dir)
	if err := writer.Write(result); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	summary := newRunSummary(meta.BaseURL, meta.Seeds, meta.Settings, result)
	if err := writeMarkdownFile(filepath.Join(dir, output.SummaryFileName), summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	fmt.Fprintf(out, "Run %d exported to %s\n", id, writer.Dir())
	return nil
}

// deleteRun removes one run from the database.
func deleteRun(ctx context.Context, db *database.CrawlDB, id int64, out io.Writer) error {
	meta, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if meta == nil {
		return fmt.Errorf("%w: %d", errRunNotFound, id)
	}

	if err := db.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	fmt.Fprintf(out, "Deleted run %d\n", id)
	return nil
}
