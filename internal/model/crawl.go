package model

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxDepth expands the seeds and their direct links only.
	DefaultMaxDepth = 1

	// DefaultMaxPages keeps an unattended crawl small.
	DefaultMaxPages = 10
)

var (
	// ErrInvalidMaxDepth is returned when max depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when max pages is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")
)

// CrawlSettings holds the budgets for a single crawl.
type CrawlSettings struct {
	// MaxDepth is the deepest level that is fetched. Seeds are depth 0.
	MaxDepth int `json:"max_depth"`

	// MaxPages is the maximum number of pages fetched in one crawl.
	MaxPages int `json:"max_pages"`
}

// DefaultCrawlSettings returns settings with the default budgets.
func DefaultCrawlSettings() CrawlSettings {
	return CrawlSettings{
		MaxDepth: DefaultMaxDepth,
		MaxPages: DefaultMaxPages,
	}
}

// Validate checks that both budgets are in range.
func (s CrawlSettings) Validate() error {
	if s.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, s.MaxDepth)
	}
	if s.MaxPages <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxPages, s.MaxPages)
	}
	return nil
}

// Edge is a directed link between two page titles, recorded when the
// target is queued.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CrawlResult accumulates everything a crawl produced.
//
// Invariant: len(Pages) == len(FetchedTitles) == len(VisitedTitles), and
// every title in FetchedTitles is unique.
type CrawlResult struct {
	// Pages are the fetched documents in fetch order.
	Pages []*PageDocument

	// FetchedTitles[i] is the title Pages[i] was requested under. It can
	// differ from Pages[i].Title when the fetcher canonicalizes titles.
	FetchedTitles []string

	// VisitedTitles is the set of titles that were fetched.
	VisitedTitles map[string]struct{}

	// Edges are recorded in queueing order.
	Edges []Edge

	// Log is the chronological event trace.
	Log []string
}

// NewCrawlResult creates an empty result.
func NewCrawlResult() *CrawlResult {
	return &CrawlResult{
		Pages:         make([]*PageDocument, 0),
		FetchedTitles: make([]string, 0),
		VisitedTitles: make(map[string]struct{}),
		Edges:         make([]Edge, 0),
		Log:           make([]string, 0),
	}
}

// HasVisited reports whether title was already fetched.
func (r *CrawlResult) HasVisited(title string) bool {
	_, ok := r.VisitedTitles[title]
	return ok
}

// AddPage appends a page fetched for title and marks title visited.
// The visited key is the requested title, not page.Title.
func (r *CrawlResult) AddPage(title string, page *PageDocument) {
	r.Pages = append(r.Pages, page)
	r.FetchedTitles = append(r.FetchedTitles, title)
	r.VisitedTitles[title] = struct{}{}
}

// AddEdge records a link from source to target.
func (r *CrawlResult) AddEdge(source, target string) {
	r.Edges = append(r.Edges, Edge{Source: source, Target: target})
}

// Logf appends a formatted event to the trace and returns it.
func (r *CrawlResult) Logf(format string, args ...any) string {
	event := fmt.Sprintf(format, args...)
	r.Log = append(r.Log, event)
	return event
}

// PageTitles returns the titles of the fetched pages in fetch order.
func (r *CrawlResult) PageTitles() []string {
	titles := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		titles[i] = p.Title
	}
	return titles
}
