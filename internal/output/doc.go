// Package output writes a finished crawl to disk and reads it back.
//
// A crawl produces three artifacts in one directory:
//
//   - corpus.jsonl: one JSON record per fetched page, in fetch order
//   - graph.json: the page nodes and the queued edges
//   - run.log: the crawl event trace, one event per line
//
// The three files are written one after another and are not transactional.
// If a later write fails, the earlier files stay on disk.
//
// MarkdownWriter renders a human-readable summary of the same data using
// github.com/nao1215/markdown.
package output
