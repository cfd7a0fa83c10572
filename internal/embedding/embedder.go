// Package embedding maps text to fixed-size vectors for similarity search.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
	ProviderHash   = "hash"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider   string
	Model      string
	Dimensions int
	APIKey     string
	BaseURL    string
	BatchSize  int
	ModelPath  string // onnx
	MaxTokens  int    // onnx
	CacheSize  int    // 0 disables the cache
}

// New creates the embedder named by opts.Provider, wrapped in an LRU cache when
// opts.CacheSize is positive.
func New(opts Options) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch opts.Provider {
	case ProviderOpenAI, "":
		e, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:     opts.APIKey,
			BaseURL:    opts.BaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			BatchSize:  opts.BatchSize,
		})
	case ProviderONNX:
		e, err = NewONNXEmbedder(ONNXOptions{
			ModelPath:  opts.ModelPath,
			Dimensions: opts.Dimensions,
			MaxTokens:  opts.MaxTokens,
		})
	case ProviderHash:
		e = NewHashEmbedder(opts.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, onnx, hash)", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize > 0 {
		e = NewCachedEmbedder(e, opts.CacheSize)
	}
	return e, nil
}

// embedEach calls embed for every text in order, stopping at the first error.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
