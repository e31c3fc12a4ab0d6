// Package database provides SQLite-based crawl history for kiwicrawl.
//
// Every successful crawl can be saved as a run. A run stores:
//   - The archive URL, the seeds, and the budgets it was started with
//   - Every fetched page in fetch order, including the raw HTML
//   - Every recorded edge and every trace event in order
//
// That is enough to rebuild the model.CrawlResult of any past run and write
// its artifacts again without touching the network.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
//
// The database is history only. A new crawl never reads it, so it cannot be
// used to resume or skip work.
package database
