package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/docqa/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "chunks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testChunks(sourcePath string, n int) []models.Chunk {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:   fmt.Sprintf("%s-%d", filepath.Base(sourcePath), i),
			Text: fmt.Sprintf("text %d of %s", i, sourcePath),
			Metadata: models.ChunkMetadata{
				SourcePath: sourcePath,
				DocumentID: filepath.Base(sourcePath),
				ChunkIndex: i,
				Timestamp:  ts,
			},
		}
	}
	return chunks
}

func TestSQLiteStorage_BatchCreateAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.BatchCreateChunks(ctx, testChunks("/u/a.txt", 3)); err != nil {
		t.Fatal(err)
	}
	if err := store.BatchCreateChunks(ctx, testChunks("/u/b.pdf", 2)); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("CountChunks = %d, want 5", n)
	}
}

func TestSQLiteStorage_BatchCreateIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks("/u/a.txt", 3)
	chunks[2].ID = chunks[0].ID // primary key violation on the last row
	if err := store.BatchCreateChunks(ctx, chunks); err == nil {
		t.Fatal("expected duplicate ID error")
	}
	n, _ := store.CountChunks(ctx)
	if n != 0 {
		t.Errorf("failed batch left %d chunks", n)
	}
}

func TestSQLiteStorage_GetChunksByIDsPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.BatchCreateChunks(ctx, testChunks("/u/a.txt", 3)); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetChunksByIDs(ctx, []string{"a.txt-2", "missing", "a.txt-0"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "a.txt-2" || got[1].ID != "a.txt-0" {
		t.Fatalf("got %+v", got)
	}
	m := got[0].Metadata
	if m.SourcePath != "/u/a.txt" || m.DocumentID != "a.txt" || m.ChunkIndex != 2 {
		t.Errorf("metadata = %+v", m)
	}
	if !m.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", m.Timestamp)
	}
	if got[0].Text != "text 2 of /u/a.txt" {
		t.Errorf("text = %q", got[0].Text)
	}
}

func TestSQLiteStorage_ChunksByDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.BatchCreateChunks(ctx, testChunks("/u/a.txt", 3)); err != nil {
		t.Fatal(err)
	}
	if err := store.BatchCreateChunks(ctx, testChunks("/u/b.pdf", 1)); err != nil {
		t.Fatal(err)
	}

	first, err := store.ChunksByDocument(ctx, "a.txt", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || first[0].ID != "a.txt-0" {
		t.Errorf("first chunk = %+v", first)
	}
	all, err := store.ChunksByDocument(ctx, "a.txt", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(all))
	}
	none, err := store.ChunksByDocument(ctx, "missing.txt", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no chunks, got %d", len(none))
	}
}

func TestSQLiteStorage_ListChunkMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.BatchCreateChunks(ctx, testChunks("/u/b.pdf", 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.BatchCreateChunks(ctx, testChunks("/u/a.txt", 2)); err != nil {
		t.Fatal(err)
	}
	metas, err := store.ListChunkMetadata(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("len = %d", len(metas))
	}
	if metas[0].DocumentID != "b.pdf" || metas[2].ChunkIndex != 1 {
		t.Errorf("metadata not in insertion order: %+v", metas)
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.db")
	ctx := context.Background()
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.BatchCreateChunks(ctx, testChunks("/u/a.txt", 2)); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	n, err := store.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountChunks after reopen = %d, want 2", n)
	}
}
