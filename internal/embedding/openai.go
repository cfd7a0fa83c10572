package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is the embedding model used when none is configured.
	DefaultOpenAIModel = "text-embedding-3-large"
	// DefaultOpenAIDimensions is the native dimension of text-embedding-3-large.
	DefaultOpenAIDimensions = 3072
	defaultOpenAIBatchSize  = 256
)

// ErrNoAPIKey is returned when no OpenAI API key is configured.
var ErrNoAPIKey = errors.New("OpenAI API key not set")

// OpenAIOptions configures an OpenAIEmbedder.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // optional, for OpenAI-compatible endpoints
	Model      string
	Dimensions int
	BatchSize  int
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
}

// NewOpenAIEmbedder creates an embedder for the configured model.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultOpenAIDimensions
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultOpenAIBatchSize
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(opts.Model),
		dimensions: opts.Dimensions,
		batchSize:  opts.BatchSize,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in requests of at most batchSize inputs, preserving order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if err := e.embedRange(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedRange(ctx context.Context, texts []string, out [][]float32) error {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	}
	// Only the text-embedding-3 family accepts a reduced output dimension.
	if strings.HasPrefix(string(e.model), "text-embedding-3") {
		req.Dimensions = e.dimensions
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return fmt.Errorf("openai returned out-of-range embedding index %d", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return fmt.Errorf("embedding has %d dimensions, expected %d", len(d.Embedding), e.dimensions)
		}
		out[d.Index] = d.Embedding
	}
	return nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
