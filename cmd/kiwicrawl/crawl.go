package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/kiwicrawl/internal/config"
	"github.com/nao1215/kiwicrawl/internal/crawler"
	"github.com/nao1215/kiwicrawl/internal/database"
	"github.com/nao1215/kiwicrawl/internal/kiwix"
	"github.com/nao1215/kiwicrawl/internal/model"
	"github.com/nao1215/kiwicrawl/internal/output"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [title...]",
		Short: "Crawl a Kiwix archive starting from seed titles",
		Long: `Crawl fetches wiki pages breadth-first from a kiwix-serve instance.

Seeds are fetched at depth 0. Links found on a page are queued one level
deeper, up to --depth. The crawl stops when the queue is empty or
--max-pages pages have been fetched. Any fetch failure aborts the crawl
and no artifacts are written.

Examples:
  # Crawl one article and its direct links
  kiwicrawl crawl "Python (programming language)"

  # Crawl two levels deep from two seeds
  kiwicrawl crawl -d 2 -p 50 "Go (programming language)" "Rust (programming language)"

  # Use another archive server
  kiwicrawl crawl -u http://archive.local:8081 "Main Page"

  # Use seeds and settings from a config profile
  kiwicrawl crawl --profile programming

  # Also write a Markdown summary and skip the history database
  kiwicrawl crawl --markdown --no-db "Alan Turing"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Archive flags
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Root URL of the kiwix-serve instance")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for each page fetch")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")

	// Crawl budget flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth (seeds are depth 0)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch")
	cmd.Flags().StringSlice("ignore", nil,
		"Glob patterns of titles that are never queued (e.g. 'Special:*')")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .kiwicrawl in current or home directory)")
	cmd.Flags().StringP("profile", "P", "",
		"Profile name from the configuration file")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to write corpus.jsonl, graph.json, and run.log to")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write summary.md to the output directory")
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from the config file and cobra command flags.
// Flags the user set explicitly win over the file; the file wins over the
// flag defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	flags := cmd.Flags()

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Profile, err = flags.GetString("profile")
	if err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore") {
		if cfg.IgnoreTitles, err = flags.GetStringSlice("ignore"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}

	cfg.MarkdownSummary, err = flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	// Positional titles replace the profile's seeds.
	if len(args) > 0 {
		cfg.Seeds = args
	}

	return cfg, nil
}

// applyConfigFile loads the config file, if any, and applies the selected
// profile. An explicitly given file or profile that cannot be found is an
// error; a missing default file is not.
func applyConfigFile(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		if cfg.Profile != "" {
			return fmt.Errorf("%w: %s (no configuration file found)", config.ErrProfileNotFound, cfg.Profile)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	profile, err := file.GetProfile(cfg.Profile)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	cfg.ApplyProfile(profile)

	return nil
}

// newFetcher wires the HTTP opener and the page fetcher for cfg.
func newFetcher(cfg *config.Config, logger *slog.Logger) (*kiwix.Fetcher, error) {
	openerOpts := []kiwix.OpenerOption{
		kiwix.WithUserAgent(cfg.UserAgent),
		kiwix.WithMaxBodySize(cfg.MaxBodySize),
	}

	if cfg.ProxyAddress != "" {
		transport, err := kiwix.NewProxyTransport(cfg.ProxyAddress)
		if err != nil {
			return nil, err
		}
		openerOpts = append(openerOpts, kiwix.WithTransport(transport))
		logger.Info("using SOCKS5 proxy", "address", cfg.ProxyAddress)
	}

	return kiwix.NewFetcher(
		cfg.BaseURL,
		kiwix.NewHTTPOpener(openerOpts...),
		kiwix.WithTimeout(cfg.Timeout),
		kiwix.WithLogger(logger),
	), nil
}

// runCrawl executes the crawl and writes its artifacts.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}

	spider := crawler.NewSpider(fetcher,
		crawler.WithSettings(cfg.CrawlSettings()),
		crawler.WithIgnoreTitles(cfg.IgnoreTitles),
		crawler.WithLogger(logger),
	)

	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"seeds", cfg.Seeds,
		"maxDepth", cfg.MaxDepth,
		"maxPages", cfg.MaxPages,
	)

	startTime := time.Now()
	result, err := spider.Crawl(ctx, cfg.Seeds)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	elapsed := time.Since(startTime)

	writer := output.NewWriter(cfg.OutputDir)
	if err := writer.Write(result); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	if cfg.MarkdownSummary {
		summary := newRunSummary(cfg.BaseURL, cfg.Seeds, cfg.CrawlSettings(), result)
		if err := writeMarkdownFile(filepath.Join(cfg.OutputDir, output.SummaryFileName), summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	fmt.Fprintf(out, "Crawled %d pages (%d edges) in %s\n",
		len(result.Pages), len(result.Edges), elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Artifacts written to %s\n", writer.Dir())

	runID, err := saveRun(ctx, cfg, result, logger)
	if err != nil {
		// The artifacts are already on disk, so a history failure is not fatal.
		logger.Error("failed to save crawl run", "error", err)
		fmt.Fprintf(out, "Warning: run was not saved to history: %v\n", err)
		return nil
	}
	if runID > 0 {
		fmt.Fprintf(out, "Saved as run %d (see 'kiwicrawl history --run %d')\n", runID, runID)
	}

	return nil
}

// saveRun stores the run in the history database if enabled.
// It returns 0 when saving is disabled.
func saveRun(ctx context.Context, cfg *config.Config, result *model.CrawlResult, logger *slog.Logger) (int64, error) {
	if !cfg.SaveToDB {
		return 0, nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveCrawlResult(ctx, database.RunRecord{
		BaseURL:  cfg.BaseURL,
		Seeds:    cfg.Seeds,
		Settings: cfg.CrawlSettings(),
	}, result)
	if err != nil {
		return 0, err
	}

	logger.Info("crawl run saved to database", "id", id, "path", db.Path())
	return id, nil
}

// newRunSummary builds a Markdown summary that includes how the run was started.
func newRunSummary(baseURL string, seeds []string, settings model.CrawlSettings, result *model.CrawlResult) *output.Summary {
	summary := output.NewSummary(result)
	summary.BaseURL = baseURL
	summary.Seeds = seeds
	summary.Settings = &settings
	return summary
}

// writeMarkdownFile renders summary to path, creating parent directories.
func writeMarkdownFile(path string, summary *output.Summary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Output path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return renderMarkdown(f, summary)
}

// renderMarkdown writes summary to wc and closes it. A close failure is
// reported when the render itself succeeded.
func renderMarkdown(wc io.WriteCloser, summary *output.Summary) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	return output.NewMarkdownWriter(wc).Write(summary)
}
