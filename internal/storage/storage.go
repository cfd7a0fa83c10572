// Package storage persists chunk text and provenance for the local vector index.
package storage

import (
	"context"

	"github.com/hyperjump/docqa/internal/models"
)

// ChunkStore defines chunk persistence operations. Chunks are append-only.
type ChunkStore interface {
	BatchCreateChunks(ctx context.Context, chunks []models.Chunk) error
	// GetChunksByIDs returns the chunks for ids in the same order; unknown IDs are skipped.
	GetChunksByIDs(ctx context.Context, ids []string) ([]models.Chunk, error)
	// ChunksByDocument returns up to limit chunks of a document in insertion order.
	ChunksByDocument(ctx context.Context, documentID string, limit int) ([]models.Chunk, error)
	ListChunkMetadata(ctx context.Context) ([]models.ChunkMetadata, error)

	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
