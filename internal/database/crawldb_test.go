package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/kiwicrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*CrawlDB, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// sampleResult builds the Root -> A -> B crawl used by several tests.
func sampleResult() *model.CrawlResult {
	result := model.NewCrawlResult()
	result.AddPage("Root", &model.PageDocument{
		Title:     "Root",
		URL:       "http://wiki.local/wiki/Root",
		HTML:      `<a href="/wiki/A">A</a>`,
		PlainText: "A",
		Links: []model.PageLink{
			{TargetURL: "http://wiki.local/wiki/A", AnchorText: "A", TargetTitle: "A"},
			{TargetURL: "mailto:someone@example.com", AnchorText: "mail", TargetTitle: "someone@example.com"},
		},
	})
	result.AddPage("A", &model.PageDocument{
		Title:     "A",
		URL:       "http://wiki.local/wiki/A",
		HTML:      `<p>no links</p>`,
		PlainText: "no links",
	})
	result.AddEdge("Root", "A")
	result.Logf("Seeded queue with '%s' at depth 0", "Root")
	result.Logf("Fetched '%s' at depth %d", "Root", 0)
	result.Logf("Queued '%s' from '%s' for depth %d", "A", "Root", 1)
	result.Logf("Fetched '%s' at depth %d", "A", 1)
	return result
}

func sampleRun() RunRecord {
	return RunRecord{
		BaseURL:  "http://wiki.local",
		Seeds:    []string{"Root"},
		Settings: model.CrawlSettings{MaxDepth: 1, MaxPages: 5},
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, FileName)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("expected path %q, got %q", dbPath, db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dbDir, Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndLoadCrawlResult tests that a saved run can be rebuilt.
func TestSaveAndLoadCrawlResult(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	want := sampleResult()

	id, err := db.SaveCrawlResult(ctx, sampleRun(), want)
	if err != nil {
		t.Fatalf("failed to save crawl result: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive run id, got %d", id)
	}

	got, err := db.GetRunResult(ctx, id)
	if err != nil {
		t.Fatalf("failed to load crawl result: %v", err)
	}
	if got == nil {
		t.Fatal("expected result, got nil")
	}

	if len(got.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(got.Pages))
	}
	if got.Pages[0].Title != "Root" || got.Pages[1].Title != "A" {
		t.Errorf("expected pages [Root A] in fetch order, got %v", got.PageTitles())
	}
	if got.Pages[0].HTML != want.Pages[0].HTML {
		t.Errorf("expected HTML %q, got %q", want.Pages[0].HTML, got.Pages[0].HTML)
	}
	if len(got.Pages[0].Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(got.Pages[0].Links))
	}
	if got.Pages[0].Links[1].TargetTitle != "someone@example.com" {
		t.Errorf("expected link title to survive, got %q", got.Pages[0].Links[1].TargetTitle)
	}
	if len(got.Pages[1].Links) != 0 {
		t.Errorf("expected no links on A, got %d", len(got.Pages[1].Links))
	}
	if !got.HasVisited("Root") || !got.HasVisited("A") {
		t.Error("expected visited set to be rebuilt")
	}

	if len(got.Edges) != 1 || got.Edges[0] != (model.Edge{Source: "Root", Target: "A"}) {
		t.Errorf("expected edge Root->A, got %v", got.Edges)
	}
	if len(got.Log) != len(want.Log) {
		t.Fatalf("expected %d events, got %d", len(want.Log), len(got.Log))
	}
	for i := range want.Log {
		if got.Log[i] != want.Log[i] {
			t.Errorf("event %d: expected %q, got %q", i, want.Log[i], got.Log[i])
		}
	}
}

// TestGetRun tests run metadata lookups.
func TestSaveCrawlResultKeepsFetchedTitles(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	want := model.NewCrawlResult()
	want.AddPage("Alias", &model.PageDocument{
		Title: "Target",
		URL:   "http://wiki.local/wiki/Target",
		Links: []model.PageLink{},
	})

	id, err := db.SaveCrawlResult(ctx, sampleRun(), want)
	if err != nil {
		t.Fatalf("failed to save crawl result: %v", err)
	}

	got, err := db.GetRunResult(ctx, id)
	if err != nil {
		t.Fatalf("failed to load crawl result: %v", err)
	}
	if got.Pages[0].Title != "Target" {
		t.Errorf("expected page title Target, got %q", got.Pages[0].Title)
	}
	if !got.HasVisited("Alias") || got.HasVisited("Target") {
		t.Errorf("expected visited set {Alias}, got %v", got.VisitedTitles)
	}
	if len(got.FetchedTitles) != 1 || got.FetchedTitles[0] != "Alias" {
		t.Errorf("expected fetched titles [Alias], got %v", got.FetchedTitles)
	}
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	id, err := db.SaveCrawlResult(ctx, sampleRun(), sampleResult())
	if err != nil {
		t.Fatalf("failed to save crawl result: %v", err)
	}

	t.Run("existing run", func(t *testing.T) {
		meta, err := db.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if meta == nil {
			t.Fatal("expected run metadata, got nil")
		}
		if meta.BaseURL != "http://wiki.local" {
			t.Errorf("expected base URL %q, got %q", "http://wiki.local", meta.BaseURL)
		}
		if len(meta.Seeds) != 1 || meta.Seeds[0] != "Root" {
			t.Errorf("expected seeds [Root], got %v", meta.Seeds)
		}
		if meta.Settings.MaxDepth != 1 || meta.Settings.MaxPages != 5 {
			t.Errorf("expected settings {1 5}, got %+v", meta.Settings)
		}
		if meta.PageCount != 2 || meta.EdgeCount != 1 {
			t.Errorf("expected 2 pages and 1 edge, got %d and %d", meta.PageCount, meta.EdgeCount)
		}
		if meta.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
	})

	t.Run("missing run returns nil", func(t *testing.T) {
		meta, err := db.GetRun(ctx, id+100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if meta != nil {
			t.Errorf("expected nil, got %+v", meta)
		}

		result, err := db.GetRunResult(ctx, id+100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Errorf("expected nil result, got %+v", result)
		}
	})
}

// TestListRuns tests that runs are listed newest first.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := db.SaveCrawlResult(ctx, sampleRun(), sampleResult())
		if err != nil {
			t.Fatalf("failed to save crawl result: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("expected newest first, got ids %d..%d", runs[0].ID, runs[2].ID)
	}

	limited, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(limited))
	}
}

// TestListRunsEmpty tests an empty history.
func TestListRunsEmpty(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	runs, err := db.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

// TestDeleteRun tests that a deleted run leaves nothing behind.
func TestDeleteRun(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	keep, err := db.SaveCrawlResult(ctx, sampleRun(), sampleResult())
	if err != nil {
		t.Fatalf("failed to save crawl result: %v", err)
	}
	drop, err := db.SaveCrawlResult(ctx, sampleRun(), sampleResult())
	if err != nil {
		t.Fatalf("failed to save crawl result: %v", err)
	}

	if err := db.DeleteRun(ctx, drop); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	meta, err := db.GetRun(ctx, drop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Error("expected deleted run to be gone")
	}

	loaded := model.NewCrawlResult()
	if err := db.loadPages(ctx, drop, loaded); err != nil {
		t.Fatalf("failed to query pages: %v", err)
	}
	pages := loaded.Pages
	if len(pages) != 0 {
		t.Errorf("expected pages of deleted run to be gone, got %d", len(pages))
	}

	kept, err := db.GetRunResult(ctx, keep)
	if err != nil {
		t.Fatalf("failed to load kept run: %v", err)
	}
	if kept == nil || len(kept.Pages) != 2 {
		t.Error("expected other run to be untouched")
	}

	if err := db.DeleteRun(ctx, drop); err != nil {
		t.Errorf("expected deleting a missing run to succeed, got %v", err)
	}
}

// TestSaveCrawlResultCanceled tests that a canceled context stores nothing.
func TestSaveCrawlResultCanceled(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := db.SaveCrawlResult(ctx, sampleRun(), sampleResult()); err == nil {
		t.Fatal("expected error for canceled context")
	}

	runs, err := db.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

// TestParseTimestamp tests the supported timestamp formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2024-03-01 12:30:45"},
		{name: "iso with Z", input: "2024-03-01T12:30:45Z"},
		{name: "iso without zone", input: "2024-03-01T12:30:45"},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if tt.zero {
				if !got.IsZero() {
					t.Errorf("expected zero time, got %v", got)
				}
				return
			}
			if !got.Equal(want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}
