package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/kiwicrawl/internal/model"
)

// Artifact file names inside the output directory.
const (
	CorpusFileName  = "corpus.jsonl"
	GraphFileName   = "graph.json"
	LogFileName     = "run.log"
	SummaryFileName = "summary.md"
)

// Writer writes the crawl artifacts into a directory.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the records are small, flat, and need stable field
// order, which struct tags already give us.
type Writer struct {
	// dir is the output directory. Created on Write if missing.
	dir string

	// graphPrefix and graphIndent control graph.json indentation.
	// The corpus is always one compact record per line.
	graphPrefix string
	graphIndent string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithGraphIndent sets the indentation of graph.json.
// An empty indent writes it compactly.
func WithGraphIndent(prefix, indent string) WriterOption {
	return func(w *Writer) {
		w.graphPrefix = prefix
		w.graphIndent = indent
	}
}

// NewWriter creates a Writer for dir. graph.json is indented with two spaces
// by default.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:         dir,
		graphPrefix: "",
		graphIndent: "  ",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// CorpusPath returns the path of corpus.jsonl.
func (w *Writer) CorpusPath() string {
	return filepath.Join(w.dir, CorpusFileName)
}

// GraphPath returns the path of graph.json.
func (w *Writer) GraphPath() string {
	return filepath.Join(w.dir, GraphFileName)
}

// LogPath returns the path of run.log.
func (w *Writer) LogPath() string {
	return filepath.Join(w.dir, LogFileName)
}

// Write creates the directory and writes corpus, graph, and log in that order.
// It stops at the first failure and leaves already written files in place.
func (w *Writer) Write(result *model.CrawlResult) error {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeFile(w.CorpusPath(), func(out io.Writer) error {
		return WriteCorpus(out, result.Pages)
	}); err != nil {
		return err
	}

	if err := writeFile(w.GraphPath(), func(out io.Writer) error {
		return w.WriteGraph(out, result)
	}); err != nil {
		return err
	}

	return writeFile(w.LogPath(), func(out io.Writer) error {
		return WriteLog(out, result.Log)
	})
}

// WriteCorpus writes one JSON record per page, each followed by a newline.
func WriteCorpus(out io.Writer, pages []*model.PageDocument) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	for _, page := range pages {
		if err := enc.Encode(NewCorpusRecord(page)); err != nil {
			return fmt.Errorf("failed to encode corpus record %q: %w", page.Title, err)
		}
	}
	return nil
}

// WriteGraph writes the graph of result as a single JSON object.
func (w *Writer) WriteGraph(out io.Writer, result *model.CrawlResult) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent(w.graphPrefix, w.graphIndent)
	if err := enc.Encode(NewGraph(result)); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// WriteLog writes the events joined by newlines, without a trailing newline.
func WriteLog(out io.Writer, events []string) error {
	_, err := io.WriteString(out, strings.Join(events, "\n"))
	return err
}

// writeFile creates path and fills it with fill, reporting close errors too.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Output path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := fill(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
