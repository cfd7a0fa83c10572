package rag

import (
	"context"
	"strings"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/memory"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/vector"
	"go.uber.org/zap"
)

// Resolver builds the document context for a question.
type Resolver struct {
	embedder   embedding.Embedder
	index      vector.Index
	topK       int
	tagSources bool
	logger     *zap.Logger
}

// NewResolver creates a resolver reading from index.
func NewResolver(embedder embedding.Embedder, index vector.Index, opts ...Option) *Resolver {
	o := applyOptions(opts)
	return &Resolver{
		embedder:   embedder,
		index:      index,
		topK:       o.topK,
		tagSources: o.tagSources,
		logger:     o.logger,
	}
}

// Resolve returns the document context for question. With an empty scope it runs a
// similarity search over the whole index; otherwise it takes one chunk per scoped
// document, in scope order. Scoped documents without chunks are logged and skipped.
// Scope entries are trimmed and blank ones dropped; a scope with nothing left is
// treated as empty. Index and embedding errors are RETRIEVAL_FAILURE.
func (r *Resolver) Resolve(ctx context.Context, question string, scope []string) (string, error) {
	scope = normalizeScope(scope)
	if len(scope) == 0 {
		return r.resolveUnscoped(ctx, question)
	}
	return r.resolveScoped(ctx, scope)
}

func normalizeScope(scope []string) []string {
	out := make([]string, 0, len(scope))
	for _, id := range scope {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (r *Resolver) resolveUnscoped(ctx context.Context, question string) (string, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return "", models.WrapError(models.KindRetrievalFailure, "embed question", err)
	}
	hits, err := r.index.SimilaritySearch(ctx, vec, r.topK)
	if err != nil {
		return "", models.WrapError(models.KindRetrievalFailure, "similarity search", err)
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		text := h.Chunk.Text
		if r.tagSources {
			text = h.Chunk.Metadata.DocumentID + "\n" + text
		}
		parts = append(parts, text)
	}
	r.logger.Debug("context retrieved", zap.Int("chunks", len(hits)))
	return strings.Join(parts, "\n\n"), nil
}

func (r *Resolver) resolveScoped(ctx context.Context, scope []string) (string, error) {
	seen := make(map[string]struct{}, len(scope))
	lines := make([]string, 0, 2*len(scope))
	for _, docID := range scope {
		if _, dup := seen[docID]; dup {
			continue
		}
		seen[docID] = struct{}{}

		chunks, err := r.index.FilteredLookup(ctx, models.Filter{DocumentID: docID}, 1)
		if err != nil {
			return "", models.WrapError(models.KindRetrievalFailure, "lookup "+docID, err)
		}
		if len(chunks) == 0 {
			r.logger.Warn("document not found in vector index",
				zap.Error(models.ErrScopeMiss),
				zap.String("kind", string(models.KindScopeMiss)),
				zap.String("document_id", docID))
			continue
		}
		lines = append(lines, docID, chunks[0].Text)
	}
	r.logger.Debug("scoped context retrieved", zap.Int("documents", len(lines)/2), zap.Int("requested", len(seen)))
	return strings.Join(lines, "\n"), nil
}

// Fuse places the conversation turns, oldest first, before the document context.
func Fuse(history []memory.Turn, documentContext string) string {
	if len(history) == 0 {
		return documentContext
	}
	blocks := make([]string, 0, len(history)+1)
	for _, t := range history {
		blocks = append(blocks, t.Format())
	}
	blocks = append(blocks, documentContext)
	return strings.Join(blocks, "\n\n")
}
