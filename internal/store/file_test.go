package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.jsonl")
	ctx := context.Background()

	first, err := OpenFileStore(path, 2)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if err := first.Put(ctx, chunk("Iliad", 0, "Sing, goddess.", []float64{1, 0})); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Put(ctx, chunk("Iliad", 1, "The wrath of Achilles.", []float64{0, 1})); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// A fresh store over the same file must see everything
	second, err := OpenFileStore(path, 2)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}

	count, err := second.Count(ctx, "Iliad")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks after reload, got %d", count)
	}

	results, err := second.QuerySimilar(ctx, "Iliad", []float64{1, 0}, 1)
	if err != nil {
		t.Fatalf("QuerySimilar failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Text != "Sing, goddess." {
		t.Errorf("Unexpected top result: %+v", results)
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.jsonl")

	s, err := OpenFileStore(path, 2)
	if err != nil {
		t.Fatalf("OpenFileStore on missing file must succeed, got: %v", err)
	}

	books, err := s.Books(context.Background())
	if err != nil {
		t.Fatalf("Books failed: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("Expected no books, got %v", books)
	}
}
