package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/vector"
	"go.uber.org/zap"
)

// Loader returns the text units of a file. *extract.Extractor implements it.
type Loader interface {
	Load(path string) ([]string, error)
}

// Pipeline ingests files: load, chunk, embed, write to the vector index.
type Pipeline struct {
	embedder embedding.Embedder
	index    vector.Index
	chunker  *Chunker
	loader   Loader
	logger   *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithLoader replaces the default extension-dispatching loader.
func WithLoader(l Loader) PipelineOption {
	return func(p *Pipeline) { p.loader = l }
}

// NewPipeline creates an ingestion pipeline writing to index.
func NewPipeline(embedder embedding.Embedder, index vector.Index, chunker *Chunker, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		embedder: embedder,
		index:    index,
		chunker:  chunker,
		loader:   extract.NewExtractor(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest loads the file at filePath, chunks it and writes all chunks to the index in
// one batch. Errors are *models.Error of kind UNSUPPORTED_FORMAT, LOAD_FAILURE or
// INDEX_WRITE_FAILURE. A failed write is not rolled back.
func (p *Pipeline) Ingest(ctx context.Context, filePath string) (*models.IngestResult, error) {
	p.logger.Debug("ingesting file", zap.String("path", filePath))
	ext := filepath.Ext(filePath)
	if !extract.Supported(ext) {
		return nil, models.NewError(models.KindUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q", strings.ToLower(ext)))
	}

	units, err := p.loader.Load(filePath)
	if err != nil {
		if models.KindOf(err) == "" {
			err = models.WrapError(models.KindLoadFailure, "load document", err)
		}
		return nil, err
	}
	nonBlank := units[:0:0]
	for _, u := range units {
		if strings.TrimSpace(u) != "" {
			nonBlank = append(nonBlank, u)
		}
	}
	if len(nonBlank) == 0 {
		return nil, models.NewError(models.KindLoadFailure,
			fmt.Sprintf("no text extracted from %s", filepath.Base(filePath)))
	}

	chunks := p.chunker.Split(Preprocess(strings.Join(nonBlank, "\n\n")), filePath)
	if len(chunks) == 0 {
		return nil, models.NewError(models.KindLoadFailure,
			fmt.Sprintf("no chunks produced from %s", filepath.Base(filePath)))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, models.WrapError(models.KindIndexWriteFailure, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, models.NewError(models.KindIndexWriteFailure,
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	if err := p.index.Add(ctx, chunks, vectors); err != nil {
		return nil, models.WrapError(models.KindIndexWriteFailure, "write chunks", err)
	}
	size, err := p.index.Count(ctx)
	if err != nil {
		return nil, models.WrapError(models.KindIndexWriteFailure, "read index size", err)
	}

	result := &models.IngestResult{
		FilePath:        filePath,
		FileName:        models.DocumentIDFromPath(filePath),
		NumChunks:       len(chunks),
		VectorStoreSize: size,
	}
	p.logger.Info("document ingested",
		zap.String("document_id", result.FileName),
		zap.Int("num_chunks", result.NumChunks),
		zap.Int("vector_store_size", result.VectorStoreSize))
	return result, nil
}

// IngestDirectory walks dir recursively and ingests each regular file with a supported
// extension. Returns the results so far and the first error encountered, if any.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) ([]*models.IngestResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, models.WrapError(models.KindLoadFailure, "stat directory", err)
	}
	if !info.IsDir() {
		return nil, models.NewError(models.KindLoadFailure, fmt.Sprintf("not a directory: %s", dir))
	}
	var results []*models.IngestResult
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extract.Supported(filepath.Ext(path)) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res, ingestErr := p.Ingest(ctx, path)
		if ingestErr != nil {
			return fmt.Errorf("ingest %s: %w", path, ingestErr)
		}
		results = append(results, res)
		return nil
	})
	return results, err
}
