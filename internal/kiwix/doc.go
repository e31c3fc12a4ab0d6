// Package kiwix fetches article pages from a kiwix-serve style wiki archive.
//
// The package has two layers:
//
//   - Opener: the network collaborator. It performs one GET with a timeout
//     and hands back the body plus the declared charset. HTTPOpener is the
//     net/http implementation; tests swap in their own.
//   - Fetcher: builds the article URL for a title, decodes the body, and runs
//     the crawler's Parser over it to produce a model.PageDocument.
//
// Every failure on the way, whether transport, non-2xx status, timeout, or an
// oversized body, is returned as a *FetchError carrying the title and URL.
// There are no retries and no caching; each FetchPage call is exactly one
// round trip.
package kiwix
