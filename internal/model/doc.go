// Package model defines the data structures shared by the crawler, the
// fetcher, and the output writers.
//
// This package contains the following main types:
//   - PageLink: One hyperlink extracted from a fetched page
//   - PageDocument: A fetched page with its plain text and ordered links
//   - CrawlSettings: Depth and page budgets for a single crawl
//   - CrawlResult: Pages, visited titles, edges, and the event trace
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, kiwix, output, and database packages all need
// these types, so centralizing them prevents import cycles.
//
// PageDocument and PageLink are treated as immutable once constructed.
// CrawlResult is the one accumulator and is mutated only by the crawl that
// created it.
package model
