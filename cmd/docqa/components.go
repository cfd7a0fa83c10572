package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/rag"
	"github.com/hyperjump/docqa/internal/vector"
	"go.uber.org/zap"
)

// Components holds the wired application for one process.
type Components struct {
	Embedder embedding.Embedder
	Index    vector.Index
	Pipeline *indexer.Pipeline
	Service  *rag.Service
}

// Close releases the embedder and the index.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.New(embedding.Options{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		BatchSize:  cfg.Embedding.BatchSize,
		ModelPath:  cfg.Embedding.ModelPath,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	generator, err := llm.New(llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	index, err := vector.Open(ctx, vector.Options{
		Type:       cfg.Vector.Type,
		Dimensions: embedder.Dimensions(),
		Dir:        cfg.Storage.DataDir,
		Qdrant: vector.QdrantConfig{
			URL:        cfg.Vector.Qdrant.URL,
			APIKey:     cfg.Vector.Qdrant.APIKey,
			Collection: cfg.Vector.Qdrant.Collection,
		},
		Logger: logger,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	logger.Info("vector index initialized",
		zap.String("type", cfg.Vector.Type),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("dimensions", embedder.Dimensions()))

	chunker, err := indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		_ = index.Close()
		_ = embedder.Close()
		return nil, err
	}
	pipeline := indexer.NewPipeline(embedder, index, chunker, indexer.WithLogger(logger))

	ragOpts := []rag.Option{
		rag.WithLogger(logger),
		rag.WithTopK(cfg.Retrieval.TopK),
		rag.WithTagSources(cfg.Retrieval.TagSources),
	}
	resolver := rag.NewResolver(embedder, index, ragOpts...)
	sessions := rag.NewSessions(resolver, generator, cfg.Memory.HistoryLimit, ragOpts...)
	service := rag.NewService(pipeline, index, sessions, ragOpts...)

	return &Components{
		Embedder: embedder,
		Index:    index,
		Pipeline: pipeline,
		Service:  service,
	}, nil
}
