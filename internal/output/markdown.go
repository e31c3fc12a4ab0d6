package output

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/markdown"

	"github.com/nao1215/kiwicrawl/internal/model"
)

// Summary is the input of MarkdownWriter.
type Summary struct {
	// BaseURL is the archive that was crawled. Optional.
	BaseURL string

	// Seeds are the starting titles. Optional.
	Seeds []string

	// Settings are the crawl budgets. Nil when unknown, e.g. when the
	// summary is built from artifacts on disk.
	Settings *model.CrawlSettings

	Artifacts *Artifacts
}

// NewSummary builds a Summary from an in-memory crawl result.
func NewSummary(result *model.CrawlResult) *Summary {
	corpus := make([]CorpusRecord, len(result.Pages))
	for i, page := range result.Pages {
		corpus[i] = NewCorpusRecord(page)
	}

	log := make([]string, len(result.Log))
	copy(log, result.Log)

	return &Summary{
		Artifacts: &Artifacts{
			Corpus: corpus,
			Graph:  NewGraph(result),
			Log:    log,
		},
	}
}

// MarkdownWriter renders a Summary as GitHub-flavored Markdown.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation so tables and alerts are escaped and aligned consistently.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders s.
func (w *MarkdownWriter) Write(s *Summary) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writePages(md, s)
	w.writeEdges(md, s)
	w.writeTrace(md, s)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by kiwicrawl*")

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Crawl Summary")
	md.PlainText("")

	rows := make([][]string, 0)
	if s.BaseURL != "" {
		rows = append(rows, []string{"Archive", "`" + s.BaseURL + "`"})
	}
	if len(s.Seeds) > 0 {
		rows = append(rows, []string{"Seeds", strings.Join(s.Seeds, ", ")})
	}
	if s.Settings != nil {
		rows = append(rows,
			[]string{"Max depth", strconv.Itoa(s.Settings.MaxDepth)},
			[]string{"Max pages", strconv.Itoa(s.Settings.MaxPages)},
		)
	}
	rows = append(rows,
		[]string{"Pages fetched", strconv.Itoa(len(s.Artifacts.Corpus))},
		[]string{"Edges", strconv.Itoa(len(s.edges()))},
		[]string{"Events", strconv.Itoa(len(s.Artifacts.Log))},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case len(s.Artifacts.Corpus) == 0:
		md.Note("No pages were fetched.")
	case s.Settings != nil && len(s.Artifacts.Corpus) >= s.Settings.MaxPages:
		md.Note("The crawl stopped because the page budget was reached.")
	case s.Settings != nil:
		md.Tip("The crawl stopped because the frontier was exhausted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, s *Summary) {
	md.H2("Pages")
	md.PlainText("")

	if len(s.Artifacts.Corpus) == 0 {
		md.PlainText("No pages.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Artifacts.Corpus))
	for i, rec := range s.Artifacts.Corpus {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Title,
			rec.URL,
			strconv.Itoa(len(rec.Links)),
			strconv.Itoa(utf8.RuneCountInString(rec.PlainText)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL", "Links", "Text length"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeEdges(md *markdown.Markdown, s *Summary) {
	md.H2("Edges")
	md.PlainText("")

	edges := s.edges()
	if len(edges) == 0 {
		md.PlainText("No edges recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(edges))
	for i, e := range edges {
		rows[i] = []string{e.Source, e.Target}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Target"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTrace(md *markdown.Markdown, s *Summary) {
	md.H2("Event Trace")
	md.PlainText("")

	if len(s.Artifacts.Log) == 0 {
		md.PlainText("No events.")
		md.PlainText("")
		return
	}

	md.BulletList(s.Artifacts.Log...)
	md.PlainText("")
}

func (s *Summary) edges() []model.Edge {
	if s.Artifacts.Graph == nil {
		return nil
	}
	return s.Artifacts.Graph.Edges
}
