package rag

import (
	"context"
	"errors"
	"sync"

	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
)

// fakeIndex returns fixed search hits and serves filtered lookups from chunks.
type fakeIndex struct {
	mu        sync.Mutex
	chunks    []models.Chunk
	hits      []models.ScoredChunk
	searchErr error
	lookupErr error
	lastK     int
	lookups   []string
}

func (f *fakeIndex) Add(_ context.Context, chunks []models.Chunk, _ [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeIndex) SimilaritySearch(_ context.Context, _ []float32, k int) ([]models.ScoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) FilteredLookup(_ context.Context, filter models.Filter, k int) ([]models.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, filter.DocumentID)
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []models.Chunk
	for _, ch := range f.chunks {
		if ch.Metadata.DocumentID == filter.DocumentID && len(out) < k {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeIndex) ListMetadata(context.Context) ([]models.ChunkMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	metas := make([]models.ChunkMetadata, len(f.chunks))
	for i, ch := range f.chunks {
		metas[i] = ch.Metadata
	}
	return metas, nil
}

func (f *fakeIndex) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks), nil
}

func (f *fakeIndex) Close() error { return nil }

func chunk(docID, text string) models.Chunk {
	return models.Chunk{
		ID:       docID + ":" + text,
		Text:     text,
		Metadata: models.ChunkMetadata{SourcePath: "/uploads/" + docID, DocumentID: docID},
	}
}

// fakeEmbedder returns a constant vector or an error.
type fakeEmbedder struct {
	err error
}

func (e fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0}, nil
}

func (e fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e fakeEmbedder) Dimensions() int { return 2 }
func (e fakeEmbedder) Close() error    { return nil }

// recordingGenerator records prompts and answers with a fixed reply or error.
type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.reply(prompt)
}

func (g *recordingGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func replyWith(answer string) *recordingGenerator {
	return &recordingGenerator{reply: func(string) (string, error) { return answer, nil }}
}

var errProvider = errors.New("provider unavailable")

var _ llm.Generator = (*recordingGenerator)(nil)
