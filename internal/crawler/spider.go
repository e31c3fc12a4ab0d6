package crawler

import (
	"context"
	"log/slog"
	"path"

	"github.com/nao1215/kiwicrawl/internal/model"
)

// PageFetcher fetches one page by title.
// kiwix.Fetcher is the production implementation.
type PageFetcher interface {
	FetchPage(ctx context.Context, title string) (*model.PageDocument, error)
}

// Spider runs breadth-first crawls over wiki titles.
//
// Design decision: We keep no crawl state on the Spider itself. Every Crawl
// call builds its own frontier and result, so one Spider can run any number
// of independent crawls.
type Spider struct {
	// fetcher is called once per newly visited title.
	fetcher PageFetcher

	// settings holds the depth and page budgets.
	settings model.CrawlSettings

	// ignoreTitles are path.Match patterns; matching candidates are never queued.
	ignoreTitles []string

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seeds, 1 = seeds plus the pages they link to, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.settings.MaxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to fetch.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.settings.MaxPages = maxPages
	}
}

// WithSettings replaces both budgets at once.
func WithSettings(settings model.CrawlSettings) SpiderOption {
	return func(s *Spider) {
		s.settings = settings
	}
}

// WithIgnoreTitles sets title patterns that are never queued.
// Patterns use path.Match syntax (e.g. "Special:*", "File:*").
func WithIgnoreTitles(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignoreTitles = patterns
	}
}

// WithLogger sets the logger that receives crawl events at debug level.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches pages through fetcher.
func NewSpider(fetcher PageFetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		settings: model.DefaultCrawlSettings(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Settings returns the budgets the Spider crawls with.
func (s *Spider) Settings() model.CrawlSettings {
	return s.settings
}

// queueItem is one frontier entry.
type queueItem struct {
	title string
	depth int
}

// Crawl fetches the seeds and expands their links breadth-first until the
// frontier is empty or the page budget is spent.
//
// A title may sit in the frontier several times; the visited check at
// dequeue time is the only dedup point, so each title is fetched at most
// once. Any fetch error aborts the crawl and is returned as is, with no
// partial result.
func (s *Spider) Crawl(ctx context.Context, seeds []string) (*model.CrawlResult, error) {
	if err := s.settings.Validate(); err != nil {
		return nil, err
	}

	result := model.NewCrawlResult()
	queue := make([]queueItem, 0, len(seeds))

	for _, seed := range seeds {
		queue = append(queue, queueItem{title: seed, depth: 0})
		s.event(result, "Seeded queue with '%s' at depth 0", seed)
	}

	for len(queue) > 0 && len(result.Pages) < s.settings.MaxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := queue[0]
		queue = queue[1:]

		if result.HasVisited(item.title) {
			s.event(result, "Skipped already visited '%s'", item.title)
			continue
		}
		if item.depth > s.settings.MaxDepth {
			s.event(result, "Skipped '%s' beyond max depth %d", item.title, s.settings.MaxDepth)
			continue
		}

		page, err := s.fetcher.FetchPage(ctx, item.title)
		if err != nil {
			return nil, err
		}

		result.AddPage(item.title, page)
		s.event(result, "Fetched '%s' at depth %d", item.title, item.depth)

		if item.depth == s.settings.MaxDepth {
			continue
		}

		for _, link := range page.Links {
			candidate, ok := candidateTitle(link)
			if !ok || result.HasVisited(candidate) || s.isIgnored(candidate) {
				continue
			}
			queue = append(queue, queueItem{title: candidate, depth: item.depth + 1})
			result.AddEdge(item.title, candidate)
			s.event(result, "Queued '%s' from '%s' for depth %d", candidate, item.title, item.depth+1)
		}
	}

	return result, nil
}

// candidateTitle picks the title a link should be queued under.
func candidateTitle(link model.PageLink) (string, bool) {
	if link.HasTargetTitle() {
		return link.TargetTitle, true
	}
	return DeriveTitleFromAbsoluteURL(link.TargetURL)
}

// isIgnored reports whether title matches any ignore pattern.
// Malformed patterns never match.
func (s *Spider) isIgnored(title string) bool {
	for _, pattern := range s.ignoreTitles {
		if matched, err := path.Match(pattern, title); err == nil && matched {
			s.logger.Debug("ignoring title", "title", title, "pattern", pattern)
			return true
		}
	}
	return false
}

// event appends to the crawl trace and mirrors it to the logger.
func (s *Spider) event(result *model.CrawlResult, format string, args ...any) {
	s.logger.Debug(result.Logf(format, args...))
}
