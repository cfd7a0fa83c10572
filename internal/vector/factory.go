package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// IndexType represents the vector index backend.
type IndexType string

const (
	// IndexTypeLocal keeps chunks in SQLite and vectors in a file under one directory.
	IndexTypeLocal IndexType = "local"
	// IndexTypeQdrant stores points in a Qdrant collection.
	IndexTypeQdrant IndexType = "qdrant"
)

// Options selects and configures an index backend.
type Options struct {
	Type       string
	Dimensions int
	Dir        string // local
	Qdrant     QdrantConfig
	Logger     *zap.Logger
}

// Open creates the index named by opts.Type ("local" when empty).
func Open(ctx context.Context, opts Options) (Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch IndexType(opts.Type) {
	case IndexTypeLocal, "":
		if opts.Dir == "" {
			return nil, fmt.Errorf("local index directory is required")
		}
		return NewLocalIndex(opts.Dir, opts.Dimensions, WithLogger(logger))
	case IndexTypeQdrant:
		cfg := opts.Qdrant
		cfg.Dimensions = opts.Dimensions
		return NewQdrantIndex(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: local, qdrant)", opts.Type)
	}
}
