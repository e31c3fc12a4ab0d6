package kiwix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/kiwicrawl/internal/crawler"
)

// newWikiServer serves /wiki/<Title> pages linking to the titles in graph.
// Unknown titles return 404.
func newWikiServer(t *testing.T, graph map[string][]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title := strings.ReplaceAll(strings.TrimPrefix(r.URL.Path, "/wiki/"), "_", " ")
		links, ok := graph[title]
		if !ok {
			http.NotFound(w, r)
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "<html><head><title>%s</title><style>p{}</style></head><body><h1>%s</h1>", title, title)
		for _, link := range links {
			fmt.Fprintf(&b, `<p><a href="/wiki/%s">%s</a></p>`, strings.ReplaceAll(link, " ", "_"), link)
		}
		b.WriteString("<script>track()</script></body></html>")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestCrawlAgainstWikiServer(t *testing.T) {
	t.Parallel()

	t.Run("end to end", func(t *testing.T) {
		t.Parallel()

		server := newWikiServer(t, map[string][]string{
			"Root": {"A", "B"},
			"A":    {"C"},
			"B":    {"D"},
			"C":    {},
			"D":    {},
		})

		fetcher := NewFetcher(server.URL, NewHTTPOpener(), WithTimeout(2*time.Second))
		spider := crawler.NewSpider(fetcher, crawler.WithMaxDepth(1), crawler.WithMaxPages(3))

		result, err := spider.Crawl(context.Background(), []string{"Root"})
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := result.PageTitles(); !reflect.DeepEqual(got, []string{"Root", "A", "B"}) {
			t.Errorf("unexpected pages %v", got)
		}
		root := result.Pages[0]
		if root.URL != server.URL+"/wiki/Root" {
			t.Errorf("unexpected URL %q", root.URL)
		}
		if root.PlainText != "Root Root A B" {
			t.Errorf("unexpected plain text %q", root.PlainText)
		}
		if len(root.Links) != 2 || root.Links[0].TargetURL != server.URL+"/wiki/A" {
			t.Errorf("unexpected links %+v", root.Links)
		}
	})

	t.Run("missing page aborts the crawl", func(t *testing.T) {
		t.Parallel()

		server := newWikiServer(t, map[string][]string{
			"Root": {"Missing Page"},
		})

		fetcher := NewFetcher(server.URL, NewHTTPOpener())
		_, err := crawler.NewSpider(fetcher).Crawl(context.Background(), []string{"Root"})

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fetchErr.Title != "Missing Page" {
			t.Errorf("unexpected title %q", fetchErr.Title)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})
}
