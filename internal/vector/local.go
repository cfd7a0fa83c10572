package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
	"go.uber.org/zap"
)

// File names inside a local index directory.
const (
	ChunksFile  = "chunks.db"
	VectorsFile = "vectors.bin"
)

// LocalIndex persists chunks to SQLite and vectors to a binary file in one directory.
// Writers hold the lock across the chunk insert and the vector append so readers never
// see a half-written batch.
type LocalIndex struct {
	dir     string
	store   storage.ChunkStore
	vectors *MemoryIndex
	logger  *zap.Logger
	mu      sync.RWMutex
}

// LocalOption configures a LocalIndex.
type LocalOption func(*LocalIndex)

// WithLogger sets a logger for index events.
func WithLogger(l *zap.Logger) LocalOption {
	return func(idx *LocalIndex) { idx.logger = l }
}

// NewLocalIndex opens (or creates) the index stored in dir.
func NewLocalIndex(dir string, dimensions int, opts ...LocalOption) (*LocalIndex, error) {
	vectors, err := NewMemoryIndex(dimensions)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	if err := vectors.Load(filepath.Join(dir, VectorsFile)); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, ChunksFile))
	if err != nil {
		return nil, err
	}
	idx := &LocalIndex{
		dir:     dir,
		store:   store,
		vectors: vectors,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}

	chunks, err := store.CountChunks(context.Background())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if int(chunks) != vectors.Size() {
		idx.logger.Warn("local index chunk and vector counts differ",
			zap.String("dir", dir), zap.Int64("chunks", chunks), zap.Int("vectors", vectors.Size()))
	}
	idx.logger.Debug("local index opened", zap.String("dir", dir), zap.Int("vectors", vectors.Size()))
	return idx, nil
}

// Add inserts the chunks, appends their vectors and saves the vector file.
func (idx *LocalIndex) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := idx.vectors.checkDimensions(vectors); err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.store.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if err := idx.vectors.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	if err := idx.vectors.Save(filepath.Join(idx.dir, VectorsFile)); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	return nil
}

// SimilaritySearch returns the k chunks most similar to query.
func (idx *LocalIndex) SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	hits, err := idx.vectors.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	chunks, err := idx.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	byID := make(map[string]models.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}
	out := make([]models.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		ch, ok := byID[h.ID]
		if !ok {
			idx.logger.Warn("vector without stored chunk", zap.String("chunk_id", h.ID))
			continue
		}
		out = append(out, models.ScoredChunk{Chunk: ch, Score: h.Score})
	}
	return out, nil
}

// FilteredLookup returns up to k chunks of filter.DocumentID in insertion order.
func (idx *LocalIndex) FilteredLookup(ctx context.Context, filter models.Filter, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.store.ChunksByDocument(ctx, filter.DocumentID, k)
}

// ListMetadata returns the metadata of all chunks in insertion order.
func (idx *LocalIndex) ListMetadata(ctx context.Context) ([]models.ChunkMetadata, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.store.ListChunkMetadata(ctx)
}

// Count returns the number of stored chunks.
func (idx *LocalIndex) Count(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, err := idx.store.CountChunks(ctx)
	return int(n), err
}

// Close closes the chunk store.
func (idx *LocalIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.store.Close()
}
