package catalog_test

import (
	"context"
	"testing"
	"time"

	"lightbox/internal/catalog"
	"lightbox/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	if err := cat.MarkProcessed(ctx, "/library/a.jpg", "image_processing"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	seen, err := cat.IsProcessed(ctx, "/library/a.jpg")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if !seen {
		t.Fatal("expected recorded path to be reported processed")
	}

	seen, err = cat.IsProcessed(ctx, "/library/b.jpg")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if seen {
		t.Fatal("expected unrecorded path to be reported unprocessed")
	}
}

func TestMarkProcessedRequiresPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)

	if err := cat.MarkProcessed(context.Background(), "", "image_processing"); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := cat.MarkProcessed(ctx, "/library/a.jpg", "image_processing"); err != nil {
			t.Fatalf("MarkProcessed %d failed: %v", i, err)
		}
	}

	count, err := cat.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record after re-marking, got %d", count)
	}
}

func TestCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	paths := []string{"/library/a.jpg", "/library/b.jpg", "/library/c.mp4"}
	for _, path := range paths {
		if err := cat.MarkProcessed(ctx, path, "image_processing"); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
	}

	count, err := cat.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != len(paths) {
		t.Fatalf("expected %d records, got %d", len(paths), count)
	}
}

func TestPruneRemovesOldRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cat := testsupport.MustOpenCatalog(t, cfg)

	ctx := context.Background()
	if err := cat.MarkProcessed(ctx, "/library/old.jpg", "image_processing"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	removed, err := cat.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned record, got %d", removed)
	}

	removed, err = cat.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no records pruned, got %d", removed)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	ctx := context.Background()
	first, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.MarkProcessed(ctx, "/library/a.jpg", "image_processing"); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenCatalog(t, cfg)
	seen, err := second.IsProcessed(ctx, "/library/a.jpg")
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if !seen {
		t.Fatal("expected record to survive reopen")
	}
}
