// Package main provides the entry point for the kiwicrawl CLI.
//
// kiwicrawl crawls a local Kiwix archive server breadth-first from a set of
// seed titles and writes a text corpus, a link graph, and an event log.
//
// Usage:
//
//	kiwicrawl crawl "Python (programming language)"
//	kiwicrawl crawl --profile languages
//
// See --help for all available options.
package main

// main is the entry point for kiwicrawl.
func main() {
	Execute()
}
