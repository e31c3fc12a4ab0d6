// Package crawler turns wiki pages into a bounded breadth-first crawl.
//
// # Architecture
//
// The package is built from three pieces, leaf first:
//
//   - ResolveTitleFromHref / DeriveTitleFromAbsoluteURL: map a link to the
//     canonical title of the page it points at
//   - Parser: a streaming tag-event scan that extracts plain text and links
//   - Spider: the crawl engine that owns the frontier, the budgets, and the
//     dedup set, and records edges and the event trace
//
// The Spider does not know about HTTP. It calls a PageFetcher once per newly
// visited title; the kiwix package provides the production implementation.
//
// Design decision: We implement our own crawler rather than using a third-party
// library because:
//  1. Pages are addressed by title, not URL, and dedup happens on titles
//  2. The fetch order, edges, and event trace must be reproducible
//  3. The frontier is strictly sequential; a crawl never fetches in parallel
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, crawler.WithMaxDepth(2), crawler.WithMaxPages(50))
//	result, err := spider.Crawl(ctx, []string{"Bronze Age"})
//
// # Failure model
//
// A single fetch failure aborts the crawl and no partial result is returned.
// Cancelling the context has the same effect.
package crawler
