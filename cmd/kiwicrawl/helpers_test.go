package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
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
		fmt.Fprintf(&b, "<html><body><h1>%s</h1>", title)
		for _, link := range links {
			fmt.Fprintf(&b, `<a href="/wiki/%s">%s</a>`, strings.ReplaceAll(link, " ", "_"), link)
		}
		b.WriteString("</body></html>")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(server.Close)

	return server
}

// writeTestConfig writes a config file into a temp dir and returns its path.
// Tests pass it with --config so a user's own config file is never read.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".kiwicrawl")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
