package kiwix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/kiwicrawl/internal/crawler"
	"github.com/nao1215/kiwicrawl/internal/model"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 10 * time.Second

var _ crawler.PageFetcher = (*Fetcher)(nil)

// Fetcher turns titles into parsed page documents.
type Fetcher struct {
	// baseURL is the archive root, e.g. "http://localhost:8080".
	baseURL string

	opener Opener

	// timeout is passed to the opener on every request.
	timeout time.Duration

	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher for the archive at baseURL.
func NewFetcher(baseURL string, opener Opener, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL: baseURL,
		opener:  opener,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// BuildPageURL returns the article URL for title under this Fetcher's archive.
func (f *Fetcher) BuildPageURL(title string) string {
	return BuildPageURL(f.baseURL, title)
}

// FetchHTML downloads and decodes the page for title.
// It returns the decoded HTML and the URL it came from.
func (f *Fetcher) FetchHTML(ctx context.Context, title string) (string, string, error) {
	pageURL := f.BuildPageURL(title)
	f.logger.Debug("fetching page", "title", title, "url", pageURL)

	resp, err := f.opener.Open(ctx, pageURL, f.timeout)
	if err != nil {
		return "", pageURL, &FetchError{Title: title, URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pageURL, &FetchError{Title: title, URL: pageURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return decodeBody(body, resp.Charset), pageURL, nil
}

// FetchPage downloads title and parses it into a PageDocument.
// Any failure is returned as a *FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, title string) (*model.PageDocument, error) {
	html, pageURL, err := f.FetchHTML(ctx, title)
	if err != nil {
		return nil, err
	}

	parsed := crawler.NewParser(pageURL).Parse(strings.NewReader(html))
	f.logger.Debug("parsed page", "title", title, "links", len(parsed.Links), "bytes", len(html))

	return &model.PageDocument{
		Title:     title,
		URL:       pageURL,
		HTML:      html,
		PlainText: parsed.PlainText,
		Links:     parsed.Links,
	}, nil
}

// BuildPageURL returns baseURL + "/wiki/" + the escaped title.
// Spaces become underscores; "/" and ":" are left unescaped so namespaced
// titles such as "Category:Ships" and subpages keep their shape.
func BuildPageURL(baseURL, title string) string {
	return strings.TrimRight(baseURL, "/") + "/wiki/" + escapeTitle(strings.ReplaceAll(title, " ", "_"))
}

// escapeTitle percent-encodes every byte outside the unreserved set and "/:".
//
// url.PathEscape is not usable here: it escapes "/" and leaves sub-delims
// such as "&", "=" and "+" unescaped.
func escapeTitle(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', '/', ':':
		return true
	}
	return false
}
