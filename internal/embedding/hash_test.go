package embedding

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "The quick brown fox")
	b, _ := e.Embed(ctx, "the QUICK brown fox.")
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("case and punctuation must not change the embedding")
		}
	}
	if n := math.Sqrt(cosine(a, a)); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", n)
	}
}

func TestHashEmbedder_SharedWordsAreCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{
		"invoice payment terms net thirty",
		"payment terms for the invoice",
		"mountain hiking trail weather",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cosine(vecs[0], vecs[1]) <= cosine(vecs[0], vecs[2]) {
		t.Error("texts sharing words should be more similar")
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dimensions = %d", e.Dimensions())
	}
	v, err := e.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("blank text should embed to the zero vector")
		}
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(Options{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_HashWithCache(t *testing.T) {
	e, err := New(Options{Provider: ProviderHash, Dimensions: 16, CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("expected cached embedder, got %T", e)
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
}
