package vector

import (
	"context"
	"testing"

	"github.com/hyperjump/docqa/internal/models"
)

func TestOpen_Local(t *testing.T) {
	idx, err := Open(context.Background(), Options{Type: "local", Dimensions: 3, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(local): %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	chunk := models.Chunk{ID: "a", Text: "alpha", Metadata: models.ChunkMetadata{DocumentID: "a.txt", SourcePath: "a.txt"}}
	if err := idx.Add(ctx, []models.Chunk{chunk}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count=%d, want 1", n)
	}
}

func TestOpen_DefaultsToLocal(t *testing.T) {
	idx, err := Open(context.Background(), Options{Dimensions: 3, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(''): %v", err)
	}
	defer idx.Close()
	if _, ok := idx.(*LocalIndex); !ok {
		t.Errorf("expected *LocalIndex, got %T", idx)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown type", Options{Type: "faiss", Dimensions: 3, Dir: t.TempDir()}},
		{"local without dir", Options{Type: "local", Dimensions: 3}},
		{"zero dimension", Options{Type: "local", Dimensions: 0, Dir: t.TempDir()}},
		{"qdrant without url", Options{Type: "qdrant", Dimensions: 3, Qdrant: QdrantConfig{Collection: "c"}}},
		{"qdrant without collection", Options{Type: "qdrant", Dimensions: 3, Qdrant: QdrantConfig{URL: "localhost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
