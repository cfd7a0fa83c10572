package embedding

import (
	"context"
	"sync"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestEmbeddingCache_GetRefreshesRecency(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")
	c.Set("c", []float32{3}) // evicts b, the least recently used
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain after being read")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestEmbeddingCache_ConcurrentGet(t *testing.T) {
	c := NewEmbeddingCache(8)
	c.Set("x", []float32{1})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get("x")
			}
		}()
	}
	wg.Wait()
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

type countingEmbedder struct {
	*HashEmbedder
	mu    sync.Mutex
	texts int
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.texts += len(texts)
	e.mu.Unlock()
	return e.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_EmbedBatchOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(8)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := e.EmbedBatch(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.EmbedBatch(ctx, []string{"beta", "gamma", "alpha"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.texts != 3 {
		t.Errorf("inner embedded %d texts, want 3", inner.texts)
	}
	if len(second) != 3 {
		t.Fatalf("len = %d", len(second))
	}
	for i := range first[0] {
		if first[0][i] != second[2][i] || first[1][i] != second[0][i] {
			t.Fatal("cached embeddings must be returned in request order")
		}
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
}
