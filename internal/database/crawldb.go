package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/kiwicrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "kiwicrawl.db"

// CrawlDB provides SQLite-based storage for crawl runs.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		seeds TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		max_pages INTEGER NOT NULL,
		page_count INTEGER NOT NULL,
		edge_count INTEGER NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);

	-- position keeps fetch order
	CREATE TABLE IF NOT EXISTS pages (
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		fetched_title TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		plain_text TEXT NOT NULL,
		html TEXT NOT NULL,
		links TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_title ON pages(title);

	CREATE TABLE IF NOT EXISTS edges (
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS events (
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord describes how a crawl was started.
type RunRecord struct {
	BaseURL  string
	Seeds    []string
	Settings model.CrawlSettings
}

// RunMetadata is a stored run without its pages.
type RunMetadata struct {
	// ID is the unique identifier of the run.
	ID int64

	RunRecord

	// PageCount and EdgeCount are the sizes of the stored result.
	PageCount int
	EdgeCount int

	// Timestamp is when the run was saved.
	Timestamp time.Time
}

// SaveCrawlResult stores result as a new run and returns its ID.
// The run is written in a single transaction.
func (cdb *CrawlDB) SaveCrawlResult(ctx context.Context, run RunRecord, result *model.CrawlResult) (id int64, err error) {
	seedsJSON, err := json.Marshal(run.Seeds)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize seeds: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (base_url, seeds, max_depth, max_pages, page_count, edge_count)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.BaseURL,
		string(seedsJSON),
		run.Settings.MaxDepth,
		run.Settings.MaxPages,
		len(result.Pages),
		len(result.Edges),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertPages(ctx, tx, id, result); err != nil {
		return 0, err
	}
	if err := insertEdges(ctx, tx, id, result.Edges); err != nil {
		return 0, err
	}
	if err := insertEvents(ctx, tx, id, result.Log); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}
	return id, nil
}

func insertPages(ctx context.Context, tx *sql.Tx, runID int64, result *model.CrawlResult) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, position, fetched_title, title, url, plain_text, html, links)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i, page := range result.Pages {
		linksJSON, err := json.Marshal(page.Links)
		if err != nil {
			return fmt.Errorf("failed to serialize links of %q: %w", page.Title, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, result.FetchedTitles[i], page.Title, page.URL, page.PlainText, page.HTML, string(linksJSON)); err != nil {
			return fmt.Errorf("failed to insert page %q: %w", page.Title, err)
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, runID int64, edges []model.Edge) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (run_id, position, source, target) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, i, e.Source, e.Target); err != nil {
			return fmt.Errorf("failed to insert edge: %w", err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, runID int64, events []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (run_id, position, message) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range events {
		if _, err := stmt.ExecContext(ctx, runID, i, msg); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, base_url, seeds, max_depth, max_pages, page_count, edge_count, timestamp
	FROM crawl_runs
	ORDER BY id DESC
	`
	args := make([]interface{}, 0)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}

	return runs, rows.Err()
}

// GetRun returns the metadata of run id, or nil if it does not exist.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*RunMetadata, error) {
	row := cdb.db.QueryRowContext(ctx, `
	SELECT id, base_url, seeds, max_depth, max_pages, page_count, edge_count, timestamp
	FROM crawl_runs
	WHERE id = ?
	`, id)

	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunMetadata, error) {
	var meta RunMetadata
	var seedsJSON string
	var timestamp string

	err := row.Scan(
		&meta.ID,
		&meta.BaseURL,
		&seedsJSON,
		&meta.Settings.MaxDepth,
		&meta.Settings.MaxPages,
		&meta.PageCount,
		&meta.EdgeCount,
		&timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan crawl run: %w", err)
	}

	if err := json.Unmarshal([]byte(seedsJSON), &meta.Seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seeds: %w", err)
	}
	meta.Timestamp = parseTimestamp(timestamp)

	return &meta, nil
}

// GetRunResult rebuilds the crawl result of run id, or returns nil if the
// run does not exist.
func (cdb *CrawlDB) GetRunResult(ctx context.Context, id int64) (*model.CrawlResult, error) {
	meta, err := cdb.GetRun(ctx, id)
	if err != nil || meta == nil {
		return nil, err
	}

	result := model.NewCrawlResult()

	if err := cdb.loadPages(ctx, id, result); err != nil {
		return nil, err
	}
	if result.Edges, err = cdb.getEdges(ctx, id); err != nil {
		return nil, err
	}
	if result.Log, err = cdb.getEvents(ctx, id); err != nil {
		return nil, err
	}

	return result, nil
}

// loadPages adds the stored pages of runID to result in fetch order.
func (cdb *CrawlDB) loadPages(ctx context.Context, runID int64, result *model.CrawlResult) error {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT fetched_title, title, url, plain_text, html, links FROM pages
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var page model.PageDocument
		var fetchedTitle, linksJSON string
		if err := rows.Scan(&fetchedTitle, &page.Title, &page.URL, &page.PlainText, &page.HTML, &linksJSON); err != nil {
			return fmt.Errorf("failed to scan page: %w", err)
		}
		if err := json.Unmarshal([]byte(linksJSON), &page.Links); err != nil {
			return fmt.Errorf("failed to parse links of %q: %w", page.Title, err)
		}
		result.AddPage(fetchedTitle, &page)
	}

	return rows.Err()
}

func (cdb *CrawlDB) getEdges(ctx context.Context, runID int64) ([]model.Edge, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT source, target FROM edges WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := make([]model.Edge, 0)
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.Source, &e.Target); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

func (cdb *CrawlDB) getEvents(ctx context.Context, runID int64) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT message FROM events WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]string, 0)
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, msg)
	}

	return events, rows.Err()
}

// DeleteRun removes run id and everything stored with it.
// Deleting a run that does not exist is not an error.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, id int64) (err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"pages", "edges", "events"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM crawl_runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete crawl run: %w", err)
	}

	return tx.Commit()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each format in turn and returns the zero time if
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
