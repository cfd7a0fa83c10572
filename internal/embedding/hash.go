package embedding

import (
	"context"
	"strings"

	"github.com/hyperjump/docqa/pkg/utils"
)

// HashEmbedder is a deterministic, offline embedder. Each lower-cased word is hashed
// into one of the vector's buckets, so texts sharing words have a positive cosine
// similarity. The same text always gets the same embedding.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hash embedder with the given dimensions (default 384).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length bag-of-words embedding of text.
// Text without words maps to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, word := range SplitWords(strings.ToLower(text)) {
		h := HashString(word)
		sign := float32(1)
		if (h>>16)&1 == 1 {
			sign = -1
		}
		emb[h%uint32(e.dimensions)] += sign
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
