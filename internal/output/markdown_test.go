package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nao1215/kiwicrawl/internal/model"
)

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders pages, edges, and trace", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(sampleResult())
		summary.BaseURL = "http://localhost:8080"
		summary.Seeds = []string{"Root"}
		summary.Settings = &model.CrawlSettings{MaxDepth: 1, MaxPages: 2}

		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).Write(summary); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		out := buf.String()

		for _, want := range []string{
			"# Crawl Summary",
			"## Pages",
			"## Edges",
			"## Event Trace",
			"http://localhost:8080/wiki/Root",
			"Fetched 'Root' at depth 0",
			"page budget was reached",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})

	t.Run("empty crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewMarkdownWriter(&buf).Write(NewSummary(model.NewCrawlResult())); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		out := buf.String()

		for _, want := range []string{"No pages were fetched.", "No edges recorded.", "No events."} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})
}
