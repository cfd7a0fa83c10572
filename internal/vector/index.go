// Package vector stores chunk embeddings and answers similarity and metadata queries.
package vector

import (
	"context"

	"github.com/hyperjump/docqa/internal/models"
)

// Index stores (vector, chunk) pairs. Writes are append-only.
type Index interface {
	// Add writes chunks and their vectors as one batch. len(chunks) must equal len(vectors).
	Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	// SimilaritySearch returns up to k chunks ordered by descending similarity to query.
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	// FilteredLookup returns up to k chunks matching filter, oldest first.
	FilteredLookup(ctx context.Context, filter models.Filter, k int) ([]models.Chunk, error)
	// ListMetadata returns the metadata of every stored chunk.
	ListMetadata(ctx context.Context) ([]models.ChunkMetadata, error)
	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
	Close() error
}

// VectorHit is a single raw vector search hit keyed by chunk ID.
type VectorHit struct {
	ID    string
	Score float64
}
